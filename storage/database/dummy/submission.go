package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/submission"
)

type submissionRepository struct {
	db     *submissionTable
	groups *groupTable
	topics *topicTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submission, groups: db.group, topics: db.topic}
}

func (repo *submissionRepository) query() []submission.Submission {
	subs := make([]submission.Submission, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.table[id]; ok {
		return *sub, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

// ownedTopicGroupIDs resolves the groups whose topic belongs to the owner.
func (repo *submissionRepository) ownedTopicGroupIDs(ownerID string) map[string]struct{} {
	repo.topics.RLock()
	topicIDs := make(map[string]struct{})
	for _, t := range repo.topics.table {
		if t.CreatedBy == ownerID {
			topicIDs[t.ID] = struct{}{}
		}
	}
	repo.topics.RUnlock()

	repo.groups.RLock()
	defer repo.groups.RUnlock()
	groupIDs := make(map[string]struct{})
	for _, g := range repo.groups.table {
		if _, ok := topicIDs[g.TopicID]; ok {
			groupIDs[g.ID] = struct{}{}
		}
	}
	return groupIDs
}

func (repo *submissionRepository) filter(filter *submission.QueryFilter) []submission.Submission {
	subs := repo.query()
	if filter == nil {
		return subs
	}
	if filter.Status != "" {
		var filtered []submission.Submission
		for _, s := range subs {
			if s.Status == filter.Status {
				filtered = append(filtered, s)
			}
		}
		subs = filtered
	}
	if subs != nil && filter.GroupID != "" {
		var filtered []submission.Submission
		for _, s := range subs {
			if s.GroupID == filter.GroupID {
				filtered = append(filtered, s)
			}
		}
		subs = filtered
	}
	if subs != nil && filter.UploadedBy != "" {
		var filtered []submission.Submission
		for _, s := range subs {
			if s.UploadedBy == filter.UploadedBy {
				filtered = append(filtered, s)
			}
		}
		subs = filtered
	}
	if subs != nil && filter.TopicOwnerID != "" {
		owned := repo.ownedTopicGroupIDs(filter.TopicOwnerID)
		var filtered []submission.Submission
		for _, s := range subs {
			if _, ok := owned[s.GroupID]; ok {
				filtered = append(filtered, s)
			}
		}
		subs = filtered
	}
	return subs
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := repo.filter(filter)
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		less := submissionLess(ord.Field)
		if less == nil {
			continue
		}
		sort.SliceStable(subs, func(a, b int) bool {
			if ord.Ascending {
				return less(subs[a], subs[b])
			}
			return less(subs[b], subs[a])
		})
	}
	return subs, nil
}

func submissionLess(field string) func(a, b submission.Submission) bool {
	switch field {
	case "status":
		return func(a, b submission.Submission) bool { return a.Status < b.Status }
	case "submitted_at":
		return func(a, b submission.Submission) bool { return a.SubmittedAt.Before(b.SubmittedAt) }
	case "reviewed_at":
		return func(a, b submission.Submission) bool { return a.ReviewedAt.Before(b.ReviewedAt) }
	}
	return nil
}

func (repo *submissionRepository) CountSubmissions(ctx context.Context, filter *submission.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sub.ID]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	sub.GroupID = orig.GroupID
	sub.UploadedBy = orig.UploadedBy
	sub.FilePath = orig.FilePath
	sub.SubmittedAt = orig.SubmittedAt
	repo.db.table[sub.ID] = &sub
	return sub, nil
}
