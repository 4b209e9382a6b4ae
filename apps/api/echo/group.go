package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/query"
	"github.com/trezcool/miradi/core/user"
)

type groupApi struct {
	svc      group.Service
	querySvc query.Service
	usrSvc   user.Service
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc group.Service, querySvc query.Service, usrSvc user.Service) {
	api := groupApi{svc: svc, querySvc: querySvc, usrSvc: usrSvc}

	gg := g.Group("/groups", jwt)

	gg.GET("/mine", api.mine, studentMiddleware())
	gg.GET("/:id", api.retrieve)

	// the query log rides on the group resource
	gg.POST("/:id/queries", api.postQuery, studentMiddleware())
	gg.GET("/:id/queries", api.listQueries)

	wg := gg.Group("", teacherMiddleware())
	wg.POST("", api.create)
	wg.GET("", api.query)
	wg.PUT("/:id", api.update)
	wg.DELETE("/:id", api.destroy)
	wg.PUT("/:id/members", api.assignMembers)
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	grp, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *groupApi) query(ctx echo.Context) error {
	filter := new(group.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []group.ProjectGroup{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	groups, err := api.svc.QueryOwn(ctx.Request().Context(), ctxUsr, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.ProjectGroup{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	detail, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err := data.Validate(detail.ProjectGroup); err != nil {
		return err
	}

	grp, err := api.svc.Update(ctx.Request().Context(), detail.ID, data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) assignMembers(ctx echo.Context) error {
	var data group.AssignMembers
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignMembers")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	members, err := api.svc.Assign(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *groupApi) mine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	details, err := api.svc.GroupsOf(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying memberships")
	}
	if details == nil {
		details = []group.Detail{}
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *groupApi) postQuery(ctx echo.Context) error {
	var data query.NewQuery
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuery")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	q, err := api.querySvc.Create(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *groupApi) listQueries(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	queries, err := api.querySvc.ListByGroup(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return err
	}
	if queries == nil {
		queries = []query.Query{}
	}
	return ctx.JSON(http.StatusOK, queries)
}
