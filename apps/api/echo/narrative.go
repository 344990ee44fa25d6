package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
)

type narrativeApi struct {
	svc        *narrative.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerNarrativeAPI(g *echo.Group, svc *narrative.Service, validate *validator.Validate, translator ut.Translator) {
	api := narrativeApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	ng := g.Group("/narratives")
	ng.GET("", api.query)
	ng.POST("", api.submit)
	ng.GET("/:id", api.retrieve)
	ng.POST("/:id/review", api.review)
}

func (api *narrativeApi) submit(ctx echo.Context) error {
	var data narrative.NewReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	r, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "submitting report")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *narrativeApi) query(ctx echo.Context) error {
	filter := new(narrative.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []narrative.Report{})
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reports, err := api.svc.Query(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	if reports == nil {
		reports = []narrative.Report{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *narrativeApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	r, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding report by ID")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *narrativeApi) review(ctx echo.Context) error {
	var data narrative.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	r, err := api.svc.Review(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing report")
	}
	return ctx.JSON(http.StatusOK, r)
}
