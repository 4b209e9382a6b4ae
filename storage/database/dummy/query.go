package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/miradi/core/query"
)

type queryRepository struct {
	db *queryTable
}

var _ query.Repository = (*queryRepository)(nil) // interface compliance check

func NewQueryRepository(db *DB) *queryRepository {
	return &queryRepository{db: db.query}
}

func (repo *queryRepository) CreateQuery(ctx context.Context, q query.Query) (query.Query, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.ID = uuid.New().String()
	repo.db.table[q.ID] = &q
	return q, nil
}

func (repo *queryRepository) QueryByGroup(ctx context.Context, groupID string) ([]query.Query, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var queries []query.Query
	for _, q := range repo.db.table {
		if q.GroupID == groupID {
			queries = append(queries, *q)
		}
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].CreatedAt.Before(queries[j].CreatedAt) })
	return queries, nil
}
