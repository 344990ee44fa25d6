package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/report"
)

type evaluationApi struct {
	svc        *evaluation.Service
	reports    *report.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerEvaluationAPI(
	g *echo.Group,
	svc *evaluation.Service,
	reports *report.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := evaluationApi{
		svc:        svc,
		reports:    reports,
		validate:   validate,
		translator: translator,
	}

	eg := g.Group("/evaluations")
	eg.GET("", api.query)
	eg.POST("", api.send, managerMiddleware())
	eg.POST("/preview", api.preview)

	// detail endpoints
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.saveDraft)
	eg.DELETE("/:id", api.destroy, managerMiddleware())
	eg.POST("/:id/submit", api.submit)
	eg.POST("/:id/reopen", api.reopen, managerMiddleware())
	eg.GET("/:id/pdf", api.pdf)
	eg.GET("/:id/drift", api.drift)
}

func (api *evaluationApi) query(ctx echo.Context) error {
	filter := new(evaluation.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []evaluation.Evaluation{})
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	evals, err := api.svc.Query(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *evaluationApi) send(ctx echo.Context) error {
	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	evl, err := api.svc.Send(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "sending evaluation")
	}
	return ctx.JSON(http.StatusCreated, evl)
}

func (api *evaluationApi) preview(ctx echo.Context) error {
	var data evaluation.PreviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PreviewRequest")
	}
	data.TemplateID = core.CleanString(data.TemplateID)
	if err := api.validate.Struct(data); err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}

	p, err := api.svc.Preview(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "previewing evaluation")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	evl, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding evaluation by ID")
	}
	return ctx.JSON(http.StatusOK, evl)
}

func (api *evaluationApi) saveDraft(ctx echo.Context) error {
	var data evaluation.DraftUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DraftUpdate")
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	evl, err := api.svc.SaveDraft(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "saving draft")
	}
	return ctx.JSON(http.StatusOK, evl)
}

// submit accepts the last changes along with the submission; an incomplete evaluation
// is kept as a draft and the first incomplete part is reported.
func (api *evaluationApi) submit(ctx echo.Context) error {
	var data evaluation.DraftUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DraftUpdate")
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	evl, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting evaluation")
	}
	return ctx.JSON(http.StatusOK, evl)
}

func (api *evaluationApi) reopen(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	evl, err := api.svc.Reopen(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reopening evaluation")
	}
	return ctx.JSON(http.StatusOK, evl)
}

func (api *evaluationApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting evaluation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *evaluationApi) pdf(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	doc, err := api.reports.EvaluationPDF(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rendering evaluation")
	}
	return sendDocument(ctx, doc)
}

func (api *evaluationApi) drift(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	drift, err := api.svc.TemplateDrift(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "diffing template")
	}
	return ctx.JSON(http.StatusOK, drift)
}
