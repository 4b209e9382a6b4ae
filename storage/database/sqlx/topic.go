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
	"github.com/trezcool/miradi/core/topic"
)

type topicRepository struct {
	db *sqlx.DB
}

var _ topic.Repository = (*topicRepository)(nil) // interface compliance check

var topicOrderColumns = orderColumns("title", "created_at")

func NewTopicRepository(db *sqlx.DB) *topicRepository {
	return &topicRepository{db: db}
}

type topicRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	CreatedBy   sql.NullString `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (repo topicRepository) marshal(t topic.Topic) topicRow {
	return topicRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   sql.NullString{String: t.CreatedBy, Valid: t.CreatedBy != ""},
		CreatedAt:   t.CreatedAt.UTC(),
	}
}

func (repo topicRepository) unmarshal(row topicRow) topic.Topic {
	return topic.Topic{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		CreatedBy:   row.CreatedBy.String,
		CreatedAt:   row.CreatedAt,
	}
}

func (repo topicRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return topic.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo topicRepository) CreateTopic(ctx context.Context, t topic.Topic) (topic.Topic, error) {
	t.ID = uuid.New().String()
	row := repo.marshal(t)
	q := `INSERT INTO topic (id, title, description, created_by, created_at)
          VALUES (:id, :title, :description, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return topic.Topic{}, errors.Wrap(err, "inserting topic")
	}
	return repo.unmarshal(row), nil
}

func (repo topicRepository) GetTopicByID(ctx context.Context, id string) (topic.Topic, error) {
	if _, err := uuid.Parse(id); err != nil {
		return topic.Topic{}, topic.ErrNotFound
	}
	var row topicRow
	if err := sqlx.GetContext(ctx, repo.db, &row, repo.db.Rebind(`SELECT * FROM topic WHERE id = ?`), id); err != nil {
		return topic.Topic{}, repo.trapNoRowsErr(err, "finding topic by ID")
	}
	return repo.unmarshal(row), nil
}

func (repo topicRepository) buildFilter(filter *topic.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter == nil {
		return "", nil
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds = append(conds, `(title ILIKE ? OR description ILIKE ?)`)
		args = append(args, val, val)
	}
	if filter.CreatedBy != "" {
		conds = append(conds, `created_by = ?`)
		args = append(args, filter.CreatedBy)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (repo topicRepository) QueryTopics(ctx context.Context, filter *topic.QueryFilter, ordering []core.DBOrdering) ([]topic.Topic, error) {
	q := `SELECT * FROM topic`
	where, args := repo.buildFilter(filter)
	q += where
	q += orderBy(ordering, topicOrderColumns)

	var rows []topicRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying topics")
	}
	topics := make([]topic.Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, repo.unmarshal(row))
	}
	return topics, nil
}

func (repo topicRepository) CountTopics(ctx context.Context, filter *topic.QueryFilter) (int, error) {
	q := `SELECT COUNT(*) FROM topic`
	where, args := repo.buildFilter(filter)
	q += where

	var count int
	if err := sqlx.GetContext(ctx, repo.db, &count, repo.db.Rebind(q), args...); err != nil {
		return 0, errors.Wrap(err, "counting topics")
	}
	return count, nil
}

func (repo topicRepository) UpdateTopic(ctx context.Context, t topic.Topic) (topic.Topic, error) {
	row := repo.marshal(t)
	q := `UPDATE topic SET title = :title, description = :description WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return topic.Topic{}, errors.Wrap(err, "updating topic")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return topic.Topic{}, topic.ErrNotFound
	}
	return repo.unmarshal(row), nil
}

func (repo topicRepository) DeleteTopicsByID(ctx context.Context, ids []string) (int, error) {
	q, args, err := sqlx.In(`DELETE FROM topic WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting topics")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting topics")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
