package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core/topic"
	"github.com/trezcool/miradi/core/user"
)

type topicApi struct {
	svc    topic.Service
	usrSvc user.Service
}

func registerTopicAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc topic.Service, usrSvc user.Service) {
	api := topicApi{svc: svc, usrSvc: usrSvc}

	tg := g.Group("/topics", jwt)

	// reads are open to any authenticated caller
	tg.GET("/:id", api.retrieve)

	// writes and listings are scoped to the owning teacher
	wg := tg.Group("", teacherMiddleware())
	wg.POST("", api.create)
	wg.GET("", api.query)
	wg.PUT("/:id", api.update)
	wg.DELETE("/:id", api.destroy)
}

func (api *topicApi) create(ctx echo.Context) error {
	var data topic.NewTopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTopic")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	t, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating topic")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *topicApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *topicApi) query(ctx echo.Context) error {
	filter := new(topic.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []topic.Topic{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	topics, err := api.svc.QueryOwn(ctx.Request().Context(), ctxUsr, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying topics")
	}
	if topics == nil {
		topics = []topic.Topic{}
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *topicApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	orig, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data topic.UpdateTopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTopic")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), orig.ID, data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *topicApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
