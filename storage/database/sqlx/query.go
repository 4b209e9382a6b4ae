package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core/query"
)

type queryRepository struct {
	db *sqlx.DB
}

var _ query.Repository = (*queryRepository)(nil) // interface compliance check

func NewQueryRepository(db *sqlx.DB) *queryRepository {
	return &queryRepository{db: db}
}

type queryRow struct {
	ID        string    `db:"id"`
	GroupID   string    `db:"group_id"`
	StudentID string    `db:"student_id"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

func (repo queryRepository) CreateQuery(ctx context.Context, q query.Query) (query.Query, error) {
	q.ID = uuid.New().String()
	q.CreatedAt = q.CreatedAt.UTC()
	row := queryRow(q)
	stmt := `INSERT INTO query (id, group_id, student_id, message, created_at)
             VALUES (:id, :group_id, :student_id, :message, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, stmt, row); err != nil {
		return query.Query{}, errors.Wrap(err, "inserting query")
	}
	return q, nil
}

func (repo queryRepository) QueryByGroup(ctx context.Context, groupID string) ([]query.Query, error) {
	stmt := `SELECT * FROM query WHERE group_id = ? ORDER BY created_at ASC`
	var rows []queryRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(stmt), groupID); err != nil {
		return nil, errors.Wrap(err, "querying group queries")
	}
	queries := make([]query.Query, 0, len(rows))
	for _, row := range rows {
		queries = append(queries, query.Query(row))
	}
	return queries, nil
}
