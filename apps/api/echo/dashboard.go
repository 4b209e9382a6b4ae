package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core/user"
)

type (
	TeacherDashboard struct {
		Students           int `json:"students"`
		Topics             int `json:"topics"`
		Groups             int `json:"groups"`
		PendingSubmissions int `json:"pending_submissions"`
	}

	AdminDashboard struct {
		Admins   int `json:"admins"`
		Teachers int `json:"teachers"`
		Students int `json:"students"`
	}
)

type dashboardApi struct {
	opts *Options
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := dashboardApi{opts: opts}

	dg := g.Group("/dashboard", jwt)
	dg.GET("/teacher", api.teacher, teacherMiddleware())
	dg.GET("/admin", api.admin, adminMiddleware())
}

func (api *dashboardApi) teacher(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rctx := ctx.Request().Context()

	students, err := api.opts.UserSvc.Count(rctx, &user.QueryFilter{Roles: []string{user.RoleStudent}})
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	topics, err := api.opts.TopicSvc.CountOwn(rctx, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "counting topics")
	}
	groups, err := api.opts.GroupSvc.CountOwnedTopicGroups(rctx, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "counting groups")
	}
	pending, err := api.opts.SubmissionSvc.CountPendingOwnedTopics(rctx, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "counting pending submissions")
	}

	return ctx.JSON(http.StatusOK, TeacherDashboard{
		Students:           students,
		Topics:             topics,
		Groups:             groups,
		PendingSubmissions: pending,
	})
}

func (api *dashboardApi) admin(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	admins, err := api.opts.UserSvc.Count(rctx, &user.QueryFilter{Roles: []string{user.RoleAdmin}})
	if err != nil {
		return errors.Wrap(err, "counting admins")
	}
	teachers, err := api.opts.UserSvc.Count(rctx, &user.QueryFilter{Roles: []string{user.RoleTeacher}})
	if err != nil {
		return errors.Wrap(err, "counting teachers")
	}
	students, err := api.opts.UserSvc.Count(rctx, &user.QueryFilter{Roles: []string{user.RoleStudent}})
	if err != nil {
		return errors.Wrap(err, "counting students")
	}

	return ctx.JSON(http.StatusOK, AdminDashboard{
		Admins:   admins,
		Teachers: teachers,
		Students: students,
	})
}
