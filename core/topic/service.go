package topic

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/user"
)

var ErrNotFound = errors.New("topic not found")

type (
	Repository interface {
		CreateTopic(ctx context.Context, t Topic) (Topic, error)
		GetTopicByID(ctx context.Context, id string) (Topic, error)
		QueryTopics(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Topic, error)
		CountTopics(ctx context.Context, filter *QueryFilter) (int, error)
		UpdateTopic(ctx context.Context, t Topic) (Topic, error)
		DeleteTopicsByID(ctx context.Context, ids []string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, nt NewTopic, owner user.User) (Topic, error)
		// Get has no ownership restriction: any authenticated caller may view
		// any topic by id. Writes stay creator-scoped.
		Get(ctx context.Context, id string) (Topic, error)
		QueryOwn(ctx context.Context, owner user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Topic, error)
		CountOwn(ctx context.Context, owner user.User) (int, error)
		Update(ctx context.Context, id string, ut UpdateTopic, actor user.User) (Topic, error)
		Delete(ctx context.Context, id string, actor user.User) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nt NewTopic, owner user.User) (Topic, error) {
	t := Topic{
		Title:       nt.Title,
		Description: nt.Description,
		CreatedBy:   owner.ID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateTopic(ctx, t)
}

func (svc *service) Get(ctx context.Context, id string) (Topic, error) {
	return svc.repo.GetTopicByID(ctx, id)
}

func (svc *service) QueryOwn(ctx context.Context, owner user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Topic, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	filter.CreatedBy = owner.ID
	return svc.repo.QueryTopics(ctx, filter, ordering)
}

func (svc *service) CountOwn(ctx context.Context, owner user.User) (int, error) {
	return svc.repo.CountTopics(ctx, &QueryFilter{CreatedBy: owner.ID})
}

// getOwned loads a topic and hides it behind ErrNotFound when the actor is
// neither its creator nor an admin, matching the original queryset scoping.
func (svc *service) getOwned(ctx context.Context, id string, actor user.User) (Topic, error) {
	t, err := svc.repo.GetTopicByID(ctx, id)
	if err != nil {
		return Topic{}, err
	}
	if t.CreatedBy != actor.ID && !actor.IsAdmin() {
		return Topic{}, ErrNotFound
	}
	return t, nil
}

func (svc *service) Update(ctx context.Context, id string, ut UpdateTopic, actor user.User) (Topic, error) {
	t, err := svc.getOwned(ctx, id, actor)
	if err != nil {
		return Topic{}, err
	}
	t.Title = ut.Title
	t.Description = ut.Description
	return svc.repo.UpdateTopic(ctx, t)
}

func (svc *service) Delete(ctx context.Context, id string, actor user.User) error {
	if _, err := svc.getOwned(ctx, id, actor); err != nil {
		return err
	}
	_, err := svc.repo.DeleteTopicsByID(ctx, []string{id})
	return err
}
