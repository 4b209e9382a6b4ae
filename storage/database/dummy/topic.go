package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/topic"
)

type topicRepository struct {
	db *topicTable
}

var _ topic.Repository = (*topicRepository)(nil) // interface compliance check

func NewTopicRepository(db *DB) *topicRepository {
	return &topicRepository{db: db.topic}
}

func (repo *topicRepository) query() []topic.Topic {
	topics := make([]topic.Topic, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		topics = append(topics, *t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].CreatedAt.Before(topics[j].CreatedAt) })
	return topics
}

func (repo *topicRepository) CreateTopic(ctx context.Context, t topic.Topic) (topic.Topic, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.New().String()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *topicRepository) GetTopicByID(ctx context.Context, id string) (topic.Topic, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return topic.Topic{}, topic.ErrNotFound
}

func (repo *topicRepository) filter(filter *topic.QueryFilter) []topic.Topic {
	topics := repo.query()
	if filter == nil {
		return topics
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		var filtered []topic.Topic
		for _, t := range topics {
			if strings.Contains(strings.ToLower(t.Title), search) ||
				strings.Contains(strings.ToLower(t.Description), search) {
				filtered = append(filtered, t)
			}
		}
		topics = filtered
	}
	if topics != nil && filter.CreatedBy != "" {
		var filtered []topic.Topic
		for _, t := range topics {
			if t.CreatedBy == filter.CreatedBy {
				filtered = append(filtered, t)
			}
		}
		topics = filtered
	}
	return topics
}

func (repo *topicRepository) QueryTopics(ctx context.Context, filter *topic.QueryFilter, ordering []core.DBOrdering) ([]topic.Topic, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	topics := repo.filter(filter)
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		less := topicLess(ord.Field)
		if less == nil {
			continue
		}
		sort.SliceStable(topics, func(a, b int) bool {
			if ord.Ascending {
				return less(topics[a], topics[b])
			}
			return less(topics[b], topics[a])
		})
	}
	return topics, nil
}

func topicLess(field string) func(a, b topic.Topic) bool {
	switch field {
	case "title":
		return func(a, b topic.Topic) bool { return a.Title < b.Title }
	case "created_at":
		return func(a, b topic.Topic) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	return nil
}

func (repo *topicRepository) CountTopics(ctx context.Context, filter *topic.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *topicRepository) UpdateTopic(ctx context.Context, t topic.Topic) (topic.Topic, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[t.ID]
	if !ok {
		return topic.Topic{}, topic.ErrNotFound
	}
	t.CreatedBy = orig.CreatedBy
	t.CreatedAt = orig.CreatedAt
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *topicRepository) DeleteTopicsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
