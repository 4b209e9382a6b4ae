package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/submission"
)

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

var submissionOrderColumns = orderColumns("status", "submitted_at", "reviewed_at")

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

type submissionRow struct {
	ID          string         `db:"id"`
	GroupID     string         `db:"group_id"`
	UploadedBy  sql.NullString `db:"uploaded_by"`
	FilePath    string         `db:"file_path"`
	Note        string         `db:"note"`
	Status      string         `db:"status"`
	Feedback    string         `db:"feedback"`
	SubmittedAt time.Time      `db:"submitted_at"`
	ReviewedAt  sql.NullTime   `db:"reviewed_at"`
}

func (repo submissionRepository) marshal(sub submission.Submission) submissionRow {
	return submissionRow{
		ID:          sub.ID,
		GroupID:     sub.GroupID,
		UploadedBy:  sql.NullString{String: sub.UploadedBy, Valid: sub.UploadedBy != ""},
		FilePath:    sub.FilePath,
		Note:        sub.Note,
		Status:      sub.Status,
		Feedback:    sub.Feedback,
		SubmittedAt: sub.SubmittedAt.UTC(),
		ReviewedAt:  sql.NullTime{Time: sub.ReviewedAt.UTC(), Valid: !sub.ReviewedAt.IsZero()},
	}
}

func (repo submissionRepository) unmarshal(row submissionRow) submission.Submission {
	return submission.Submission{
		ID:          row.ID,
		GroupID:     row.GroupID,
		UploadedBy:  row.UploadedBy.String,
		FilePath:    row.FilePath,
		Note:        row.Note,
		Status:      row.Status,
		Feedback:    row.Feedback,
		SubmittedAt: row.SubmittedAt,
		ReviewedAt:  row.ReviewedAt.Time,
	}
}

func (repo submissionRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return submission.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	sub.ID = uuid.New().String()
	row := repo.marshal(sub)
	q := `INSERT INTO submission (id, group_id, uploaded_by, file_path, note, status, feedback, submitted_at, reviewed_at)
          VALUES (:id, :group_id, :uploaded_by, :file_path, :note, :status, :feedback, :submitted_at, :reviewed_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return repo.unmarshal(row), nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return submission.Submission{}, submission.ErrNotFound
	}
	var row submissionRow
	if err := sqlx.GetContext(ctx, repo.db, &row, repo.db.Rebind(`SELECT * FROM submission WHERE id = ?`), id); err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "finding submission by ID")
	}
	return repo.unmarshal(row), nil
}

func (repo submissionRepository) buildFilter(filter *submission.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter == nil {
		return "", nil
	}
	if filter.Status != "" {
		conds = append(conds, `s.status = ?`)
		args = append(args, filter.Status)
	}
	if filter.GroupID != "" {
		conds = append(conds, `s.group_id = ?`)
		args = append(args, filter.GroupID)
	}
	if filter.UploadedBy != "" {
		conds = append(conds, `s.uploaded_by = ?`)
		args = append(args, filter.UploadedBy)
	}
	if filter.TopicOwnerID != "" {
		conds = append(conds, `s.group_id IN (
            SELECT g.id FROM project_group g
            JOIN topic t ON t.id = g.topic_id
            WHERE t.created_by = ?)`)
		args = append(args, filter.TopicOwnerID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering) ([]submission.Submission, error) {
	q := `SELECT s.* FROM submission s`
	where, args := repo.buildFilter(filter)
	q += where
	q += orderBy(ordering, submissionOrderColumns)

	var rows []submissionRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, repo.unmarshal(row))
	}
	return subs, nil
}

func (repo submissionRepository) CountSubmissions(ctx context.Context, filter *submission.QueryFilter) (int, error) {
	q := `SELECT COUNT(*) FROM submission s`
	where, args := repo.buildFilter(filter)
	q += where

	var count int
	if err := sqlx.GetContext(ctx, repo.db, &count, repo.db.Rebind(q), args...); err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return count, nil
}

func (repo submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	row := repo.marshal(sub)
	q := `UPDATE submission
          SET status = :status, feedback = :feedback, reviewed_at = :reviewed_at
          WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.unmarshal(row), nil
}
