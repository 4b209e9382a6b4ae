package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/group"
)

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

var groupOrderColumns = orderColumns("name", "created_at")

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

type groupRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	MaxMembers int            `db:"max_members"`
	TopicID    sql.NullString `db:"topic_id"`
	Division   sql.NullString `db:"division"`
	Semester   sql.NullInt64  `db:"semester"`
	TeacherID  string         `db:"teacher_id"`
	CreatedAt  time.Time      `db:"created_at"`
}

// memberRow joins group_member onto the student's "user" row.
type memberRow struct {
	userRow
	JoinedAt time.Time `db:"joined_at"`
}

func (repo groupRepository) marshal(g group.ProjectGroup) groupRow {
	return groupRow{
		ID:         g.ID,
		Name:       g.Name,
		MaxMembers: g.MaxMembers,
		TopicID:    sql.NullString{String: g.TopicID, Valid: g.TopicID != ""},
		Division:   sql.NullString{String: g.Division, Valid: g.Division != ""},
		Semester:   sql.NullInt64{Int64: int64(g.Semester), Valid: g.Semester != 0},
		TeacherID:  g.TeacherID,
		CreatedAt:  g.CreatedAt.UTC(),
	}
}

func (repo groupRepository) unmarshal(row groupRow) group.ProjectGroup {
	return group.ProjectGroup{
		ID:         row.ID,
		Name:       row.Name,
		MaxMembers: row.MaxMembers,
		TopicID:    row.TopicID.String,
		Division:   row.Division.String,
		Semester:   int(row.Semester.Int64),
		TeacherID:  row.TeacherID,
		CreatedAt:  row.CreatedAt,
	}
}

func (repo groupRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return group.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo groupRepository) CreateGroup(ctx context.Context, g group.ProjectGroup) (group.ProjectGroup, error) {
	g.ID = uuid.New().String()
	row := repo.marshal(g)
	q := `INSERT INTO project_group (id, name, max_members, topic_id, division, semester, teacher_id, created_at)
          VALUES (:id, :name, :max_members, :topic_id, :division, :semester, :teacher_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return group.ProjectGroup{}, errors.Wrap(err, "inserting group")
	}
	return repo.unmarshal(row), nil
}

func (repo groupRepository) GetGroupByID(ctx context.Context, id string) (group.ProjectGroup, error) {
	if _, err := uuid.Parse(id); err != nil {
		return group.ProjectGroup{}, group.ErrNotFound
	}
	var row groupRow
	if err := sqlx.GetContext(ctx, repo.db, &row, repo.db.Rebind(`SELECT * FROM project_group WHERE id = ?`), id); err != nil {
		return group.ProjectGroup{}, repo.trapNoRowsErr(err, "finding group by ID")
	}
	return repo.unmarshal(row), nil
}

func (repo groupRepository) buildFilter(filter *group.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter == nil {
		return "", nil
	}
	if filter.Search != "" {
		conds = append(conds, `g.name ILIKE ?`)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.TeacherID != "" {
		conds = append(conds, `g.teacher_id = ?`)
		args = append(args, filter.TeacherID)
	}
	if filter.TopicID != "" {
		conds = append(conds, `g.topic_id = ?`)
		args = append(args, filter.TopicID)
	}
	if filter.TopicOwnerID != "" {
		conds = append(conds, `g.topic_id IN (SELECT id FROM topic WHERE created_by = ?)`)
		args = append(args, filter.TopicOwnerID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (repo groupRepository) QueryGroups(ctx context.Context, filter *group.QueryFilter, ordering []core.DBOrdering) ([]group.ProjectGroup, error) {
	q := `SELECT g.* FROM project_group g`
	where, args := repo.buildFilter(filter)
	q += where
	q += orderBy(ordering, groupOrderColumns)

	var rows []groupRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groups := make([]group.ProjectGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.unmarshal(row))
	}
	return groups, nil
}

func (repo groupRepository) CountGroups(ctx context.Context, filter *group.QueryFilter) (int, error) {
	q := `SELECT COUNT(*) FROM project_group g`
	where, args := repo.buildFilter(filter)
	q += where

	var count int
	if err := sqlx.GetContext(ctx, repo.db, &count, repo.db.Rebind(q), args...); err != nil {
		return 0, errors.Wrap(err, "counting groups")
	}
	return count, nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, g group.ProjectGroup) (group.ProjectGroup, error) {
	row := repo.marshal(g)
	q := `UPDATE project_group
          SET name = :name, max_members = :max_members, topic_id = :topic_id,
              division = :division, semester = :semester
          WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return group.ProjectGroup{}, errors.Wrap(err, "updating group")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return group.ProjectGroup{}, group.ErrNotFound
	}
	return repo.unmarshal(row), nil
}

func (repo groupRepository) DeleteGroupsByID(ctx context.Context, ids []string) (int, error) {
	q, args, err := sqlx.In(`DELETE FROM project_group WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting groups")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting groups")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo groupRepository) QueryMembers(ctx context.Context, groupID string) ([]group.Member, error) {
	q := `SELECT u.*, gm.joined_at FROM group_member gm
          JOIN "user" u ON u.id = gm.student_id
          WHERE gm.group_id = ?
          ORDER BY gm.joined_at ASC`
	var rows []memberRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), groupID); err != nil {
		return nil, errors.Wrap(err, "querying group members")
	}
	members := make([]group.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, group.Member{
			Student:  userRepository{}.unmarshal(row.userRow),
			JoinedAt: row.JoinedAt,
		})
	}
	return members, nil
}

func (repo groupRepository) QueryMemberGroups(ctx context.Context, studentID string) ([]group.ProjectGroup, error) {
	q := `SELECT g.* FROM group_member gm
          JOIN project_group g ON g.id = gm.group_id
          WHERE gm.student_id = ?
          ORDER BY gm.joined_at ASC`
	var rows []groupRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), studentID); err != nil {
		return nil, errors.Wrap(err, "querying memberships")
	}
	groups := make([]group.ProjectGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.unmarshal(row))
	}
	return groups, nil
}

// ReplaceMembers swaps the group's membership inside a single transaction so
// readers never observe the cleared intermediate state.
func (repo groupRepository) ReplaceMembers(ctx context.Context, groupID string, studentIDs []string) ([]group.Member, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM group_member WHERE group_id = ?`), groupID); err != nil {
		return nil, errors.Wrap(err, "clearing members")
	}

	// an empty set just clears the group
	if len(studentIDs) > 0 {
		now := time.Now().UTC()
		q := `INSERT INTO group_member (group_id, student_id, joined_at) VALUES `
		vals := make([]string, 0, len(studentIDs))
		args := make([]interface{}, 0, 3*len(studentIDs))
		for _, id := range studentIDs {
			vals = append(vals, "(?, ?, ?)")
			args = append(args, groupID, id, now)
		}
		q += strings.Join(vals, ", ")
		if _, err = tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
			if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
				return nil, group.ErrMemberExists
			}
			return nil, errors.Wrap(err, "inserting members")
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing membership")
	}
	return repo.QueryMembers(ctx, groupID)
}
