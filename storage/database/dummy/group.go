package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/user"
)

type groupRepository struct {
	db     *groupTable
	users  *userTable
	topics *topicTable
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db.group, users: db.user, topics: db.topic}
}

func (repo *groupRepository) query() []group.ProjectGroup {
	groups := make([]group.ProjectGroup, 0, len(repo.db.table))
	for _, g := range repo.db.table {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return groups
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.ProjectGroup) (group.ProjectGroup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	g.ID = uuid.New().String()
	repo.db.table[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string) (group.ProjectGroup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.table[id]; ok {
		return *g, nil
	}
	return group.ProjectGroup{}, group.ErrNotFound
}

func (repo *groupRepository) ownedTopicIDs(ownerID string) map[string]struct{} {
	repo.topics.RLock()
	defer repo.topics.RUnlock()

	ids := make(map[string]struct{})
	for _, t := range repo.topics.table {
		if t.CreatedBy == ownerID {
			ids[t.ID] = struct{}{}
		}
	}
	return ids
}

func (repo *groupRepository) filter(filter *group.QueryFilter) []group.ProjectGroup {
	groups := repo.query()
	if filter == nil {
		return groups
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		var filtered []group.ProjectGroup
		for _, g := range groups {
			if strings.Contains(strings.ToLower(g.Name), search) {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	if groups != nil && filter.TeacherID != "" {
		var filtered []group.ProjectGroup
		for _, g := range groups {
			if g.TeacherID == filter.TeacherID {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	if groups != nil && filter.TopicID != "" {
		var filtered []group.ProjectGroup
		for _, g := range groups {
			if g.TopicID == filter.TopicID {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	if groups != nil && filter.TopicOwnerID != "" {
		owned := repo.ownedTopicIDs(filter.TopicOwnerID)
		var filtered []group.ProjectGroup
		for _, g := range groups {
			if _, ok := owned[g.TopicID]; ok {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	return groups
}

func (repo *groupRepository) QueryGroups(ctx context.Context, filter *group.QueryFilter, ordering []core.DBOrdering) ([]group.ProjectGroup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := repo.filter(filter)
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		less := groupLess(ord.Field)
		if less == nil {
			continue
		}
		sort.SliceStable(groups, func(a, b int) bool {
			if ord.Ascending {
				return less(groups[a], groups[b])
			}
			return less(groups[b], groups[a])
		})
	}
	return groups, nil
}

func groupLess(field string) func(a, b group.ProjectGroup) bool {
	switch field {
	case "name":
		return func(a, b group.ProjectGroup) bool { return a.Name < b.Name }
	case "created_at":
		return func(a, b group.ProjectGroup) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	return nil
}

func (repo *groupRepository) CountGroups(ctx context.Context, filter *group.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, g group.ProjectGroup) (group.ProjectGroup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[g.ID]
	if !ok {
		return group.ProjectGroup{}, group.ErrNotFound
	}
	g.TeacherID = orig.TeacherID
	g.CreatedAt = orig.CreatedAt
	repo.db.table[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) DeleteGroupsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			delete(repo.db.members, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *groupRepository) getStudent(id string) (user.User, bool) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	if usr, ok := repo.users.table[id]; ok {
		return *usr, true
	}
	return user.User{}, false
}

func (repo *groupRepository) members(groupID string) []group.Member {
	members := make([]group.Member, 0, len(repo.db.members[groupID]))
	for _, m := range repo.db.members[groupID] {
		usr, ok := repo.getStudent(m.studentID)
		if !ok {
			continue
		}
		members = append(members, group.Member{Student: usr, JoinedAt: m.joinedAt})
	}
	return members
}

func (repo *groupRepository) QueryMembers(ctx context.Context, groupID string) ([]group.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.members(groupID), nil
}

func (repo *groupRepository) QueryMemberGroups(ctx context.Context, studentID string) ([]group.ProjectGroup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	type hit struct {
		g        group.ProjectGroup
		joinedAt time.Time
	}
	var hits []hit
	for groupID, members := range repo.db.members {
		for _, m := range members {
			if m.studentID == studentID {
				if g, ok := repo.db.table[groupID]; ok {
					hits = append(hits, hit{g: *g, joinedAt: m.joinedAt})
				}
				break
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].joinedAt.Before(hits[j].joinedAt) })

	groups := make([]group.ProjectGroup, 0, len(hits))
	for _, h := range hits {
		groups = append(groups, h.g)
	}
	return groups, nil
}

func (repo *groupRepository) ReplaceMembers(ctx context.Context, groupID string, studentIDs []string) ([]group.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[groupID]; !ok {
		return nil, group.ErrNotFound
	}

	now := time.Now().UTC()
	members := make([]membership, 0, len(studentIDs))
	seen := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		if _, dup := seen[id]; dup {
			return nil, group.ErrMemberExists
		}
		seen[id] = struct{}{}
		members = append(members, membership{studentID: id, joinedAt: now})
	}

	// single swap under the write lock; readers see the old set or the new one
	repo.db.members[groupID] = members
	return repo.members(groupID), nil
}
