package query

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/user"
)

var ErrNotFound = errors.New("query not found")

type (
	Repository interface {
		CreateQuery(ctx context.Context, q Query) (Query, error)
		// QueryByGroup returns a group's queries, oldest first.
		QueryByGroup(ctx context.Context, groupID string) ([]Query, error)
	}

	Service interface {
		// Create appends a question to the group's log. The student must be
		// a member of the group.
		Create(ctx context.Context, student user.User, groupID string, nq NewQuery) (Query, error)
		// ListByGroup is readable by the group's members, its owning teacher
		// and admins.
		ListByGroup(ctx context.Context, groupID string, actor user.User) ([]Query, error)
	}

	service struct {
		repo      Repository
		groupRepo group.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, groupRepo group.Repository) Service {
	return &service{repo: repo, groupRepo: groupRepo}
}

func (svc *service) isMember(ctx context.Context, groupID, studentID string) (bool, error) {
	groups, err := svc.groupRepo.QueryMemberGroups(ctx, studentID)
	if err != nil {
		return false, errors.Wrap(err, "querying memberships")
	}
	for _, g := range groups {
		if g.ID == groupID {
			return true, nil
		}
	}
	return false, nil
}

func (svc *service) Create(ctx context.Context, student user.User, groupID string, nq NewQuery) (Query, error) {
	ok, err := svc.isMember(ctx, groupID, student.ID)
	if err != nil {
		return Query{}, err
	}
	if !ok {
		return Query{}, group.ErrNotFound
	}
	q := Query{
		GroupID:   groupID,
		StudentID: student.ID,
		Message:   nq.Message,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateQuery(ctx, q)
}

func (svc *service) ListByGroup(ctx context.Context, groupID string, actor user.User) ([]Query, error) {
	g, err := svc.groupRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	allowed := actor.IsAdmin() || g.TeacherID == actor.ID
	if !allowed && actor.IsStudent() {
		if allowed, err = svc.isMember(ctx, groupID, actor.ID); err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, group.ErrNotFound
	}
	return svc.repo.QueryByGroup(ctx, groupID)
}
