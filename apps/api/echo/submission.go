package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/submission"
	"github.com/trezcool/miradi/core/user"
)

var errNoFile = "a submission file is required"

type submissionApi struct {
	svc    submission.Service
	usrSvc user.Service
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc submission.Service, usrSvc user.Service) {
	api := submissionApi{svc: svc, usrSvc: usrSvc}

	sg := g.Group("/submissions", jwt)

	sg.POST("", api.create, studentMiddleware())
	sg.GET("/mine", api.mine, studentMiddleware())

	tg := sg.Group("", teacherMiddleware())
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id/review", api.review)
}

// create accepts a multipart form: a "file" part plus the form fields of
// NewSubmission.
func (api *submissionApi) create(ctx echo.Context) error {
	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: errNoFile})
	}
	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, data, fileHdr.Filename, file)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) mine(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.svc.QueryOwn(ctx.Request().Context(), ctxUsr, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) query(ctx echo.Context) error {
	filter := new(submission.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []submission.Submission{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		// teachers only see submissions against their own topics
		filter.TopicOwnerID = ctxUsr.ID
	}

	subs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	sub, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) review(ctx echo.Context) error {
	var data submission.ReviewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Review(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}
