package group

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/topic"
	"github.com/trezcool/miradi/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("group not found")
	ErrMemberExists = errors.New("student is already a member of this group")
	ErrGroupFull    = errors.New("group capacity exceeded")

	errNotOwnTopic = "topic does not exist or is not yours"
	errNotAStudent = "all assigned members must be active students"
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, g ProjectGroup) (ProjectGroup, error)
		GetGroupByID(ctx context.Context, id string) (ProjectGroup, error)
		QueryGroups(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]ProjectGroup, error)
		CountGroups(ctx context.Context, filter *QueryFilter) (int, error)
		UpdateGroup(ctx context.Context, g ProjectGroup) (ProjectGroup, error)
		DeleteGroupsByID(ctx context.Context, ids []string) (int, error)

		QueryMembers(ctx context.Context, groupID string) ([]Member, error)
		// QueryMemberGroups returns the groups a student belongs to, oldest
		// membership first.
		QueryMemberGroups(ctx context.Context, studentID string) ([]ProjectGroup, error)
		// ReplaceMembers atomically swaps the full membership of a group:
		// a concurrent reader sees either the old set or the new one, never
		// the cleared intermediate state, and a failure keeps the old set.
		ReplaceMembers(ctx context.Context, groupID string, studentIDs []string) ([]Member, error)
	}

	Service interface {
		Create(ctx context.Context, ng NewGroup, owner user.User) (ProjectGroup, error)
		Get(ctx context.Context, id string) (Detail, error)
		QueryOwn(ctx context.Context, owner user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]ProjectGroup, error)
		CountOwnedTopicGroups(ctx context.Context, owner user.User) (int, error)
		Update(ctx context.Context, id string, ug UpdateGroup, actor user.User) (ProjectGroup, error)
		Delete(ctx context.Context, id string, actor user.User) error
		// Assign replaces the full membership of a group with the given set.
		Assign(ctx context.Context, groupID string, am AssignMembers, actor user.User) ([]Member, error)
		// GroupsOf aggregates all groups a student belongs to, members resolved.
		GroupsOf(ctx context.Context, student user.User) ([]Detail, error)
	}

	service struct {
		repo     Repository
		topicSvc topic.Service
		usrSvc   user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, topicSvc topic.Service, usrSvc user.Service) Service {
	return &service{repo: repo, topicSvc: topicSvc, usrSvc: usrSvc}
}

// checkOwnTopic verifies that the topic exists and was authored by the owner;
// the topic choice list is restricted to the teacher's own topics.
func (svc *service) checkOwnTopic(ctx context.Context, topicID string, owner user.User) error {
	if topicID == "" {
		return nil
	}
	t, err := svc.topicSvc.Get(ctx, topicID)
	if err != nil && errors.Cause(err) != topic.ErrNotFound {
		return errors.Wrap(err, "finding topic")
	}
	if err != nil || (t.CreatedBy != owner.ID && !owner.IsAdmin()) {
		return core.NewValidationError(nil, core.FieldError{Field: "topic_id", Error: errNotOwnTopic})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ng NewGroup, owner user.User) (ProjectGroup, error) {
	if err := svc.checkOwnTopic(ctx, ng.TopicID, owner); err != nil {
		return ProjectGroup{}, err
	}
	g := ProjectGroup{
		Name:       ng.Name,
		MaxMembers: ng.MaxMembers,
		TopicID:    ng.TopicID,
		Division:   ng.Division,
		Semester:   ng.Semester,
		TeacherID:  owner.ID,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateGroup(ctx, g)
}

func (svc *service) Get(ctx context.Context, id string) (Detail, error) {
	g, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	members, err := svc.repo.QueryMembers(ctx, id)
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying members")
	}
	return Detail{ProjectGroup: g, Members: members}, nil
}

func (svc *service) QueryOwn(ctx context.Context, owner user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]ProjectGroup, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	filter.TeacherID = owner.ID
	return svc.repo.QueryGroups(ctx, filter, ordering)
}

func (svc *service) CountOwnedTopicGroups(ctx context.Context, owner user.User) (int, error) {
	return svc.repo.CountGroups(ctx, &QueryFilter{TopicOwnerID: owner.ID})
}

// getOwned hides groups behind ErrNotFound for anyone but the owning teacher
// or an admin.
func (svc *service) getOwned(ctx context.Context, id string, actor user.User) (ProjectGroup, error) {
	g, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return ProjectGroup{}, err
	}
	if g.TeacherID != actor.ID && !actor.IsAdmin() {
		return ProjectGroup{}, ErrNotFound
	}
	return g, nil
}

func (svc *service) Update(ctx context.Context, id string, ug UpdateGroup, actor user.User) (ProjectGroup, error) {
	g, err := svc.getOwned(ctx, id, actor)
	if err != nil {
		return ProjectGroup{}, err
	}
	if ug.TopicID != g.TopicID {
		if err := svc.checkOwnTopic(ctx, ug.TopicID, actor); err != nil {
			return ProjectGroup{}, err
		}
	}
	g.Name = ug.Name
	g.MaxMembers = ug.MaxMembers
	g.TopicID = ug.TopicID
	g.Division = ug.Division
	g.Semester = ug.Semester
	return svc.repo.UpdateGroup(ctx, g)
}

func (svc *service) Delete(ctx context.Context, id string, actor user.User) error {
	if _, err := svc.getOwned(ctx, id, actor); err != nil {
		return err
	}
	// memberships cascade with the group
	_, err := svc.repo.DeleteGroupsByID(ctx, []string{id})
	return err
}

func (svc *service) Assign(ctx context.Context, groupID string, am AssignMembers, actor user.User) ([]Member, error) {
	g, err := svc.getOwned(ctx, groupID, actor)
	if err != nil {
		return nil, err
	}

	// reject duplicates in the desired set
	seen := make(map[string]struct{}, len(am.StudentIDs))
	for _, id := range am.StudentIDs {
		if _, dup := seen[id]; dup {
			return nil, core.NewValidationError(ErrMemberExists, core.FieldError{Field: "students", Error: ErrMemberExists.Error()})
		}
		seen[id] = struct{}{}
	}

	// hard capacity cap
	if len(am.StudentIDs) > g.MaxMembers {
		return nil, core.NewValidationError(ErrGroupFull, core.FieldError{Field: "students", Error: ErrGroupFull.Error()})
	}

	// every assignee must be an active student
	for _, id := range am.StudentIDs {
		usr, err := svc.usrSvc.GetByID(ctx, id)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return nil, core.NewValidationError(err, core.FieldError{Field: "students", Error: errNotAStudent})
			}
			return nil, errors.Wrap(err, "finding student")
		}
		if !usr.IsStudent() || !usr.Active() {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "students", Error: errNotAStudent})
		}
	}

	return svc.repo.ReplaceMembers(ctx, groupID, am.StudentIDs)
}

func (svc *service) GroupsOf(ctx context.Context, student user.User) ([]Detail, error) {
	groups, err := svc.repo.QueryMemberGroups(ctx, student.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying memberships")
	}
	details := make([]Detail, 0, len(groups))
	for _, g := range groups {
		members, err := svc.repo.QueryMembers(ctx, g.ID)
		if err != nil {
			return nil, errors.Wrap(err, "querying members")
		}
		details = append(details, Detail{ProjectGroup: g, Members: members})
	}
	return details, nil
}
