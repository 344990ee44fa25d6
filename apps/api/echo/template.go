package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
)

type templateApi struct {
	svc        *evaluation.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerTemplateAPI(g *echo.Group, svc *evaluation.Service, validate *validator.Validate, translator ut.Translator) {
	api := templateApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	g.GET("/scales", api.queryScales)

	tg := g.Group("/templates")
	tg.GET("", api.query)
	tg.POST("", api.create, managerMiddleware())
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update, managerMiddleware())
	tg.DELETE("/:id", api.destroy, managerMiddleware())
}

func (api *templateApi) queryScales(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Scales().List())
}

func (api *templateApi) query(ctx echo.Context) error {
	filter := new(evaluation.TemplateFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []evaluation.Template{})
	}
	filter.Clean()
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tmpls, err := api.svc.QueryTemplates(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "querying templates")
	}
	if tmpls == nil {
		tmpls = []evaluation.Template{}
	}
	return ctx.JSON(http.StatusOK, tmpls)
}

func (api *templateApi) create(ctx echo.Context) error {
	var data evaluation.NewTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTemplate")
	}
	if err := data.Validate(api.validate, api.translator, api.svc.Scales()); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tmpl, err := api.svc.CreateTemplate(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating template")
	}
	return ctx.JSON(http.StatusCreated, tmpl)
}

func (api *templateApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	tmpl, err := api.svc.GetTemplate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding template by ID")
	}
	// coordinators and supervisors see the templates of their department and the global ones
	if !ctxUsr.IsAdmin() {
		filter := evaluation.TemplateFilter{Department: ctxUsr.Department}
		if (ctxUsr.Department == "" && tmpl.Department != "") || !filter.Matches(tmpl) {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *templateApi) update(ctx echo.Context) error {
	var data evaluation.NewTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTemplate")
	}
	if err := data.Validate(api.validate, api.translator, api.svc.Scales()); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tmpl, err := api.svc.UpdateTemplate(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating template")
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *templateApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.DeleteTemplate(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting template")
	}
	return ctx.NoContent(http.StatusNoContent)
}
