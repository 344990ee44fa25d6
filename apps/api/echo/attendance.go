package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
)

type attendanceApi struct {
	svc        *attendance.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service, validate *validator.Validate, translator ut.Translator) {
	api := attendanceApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	ag := g.Group("/attendance")
	ag.GET("", api.query)
	ag.POST("/clock-in", api.clockIn)
	ag.POST("/clock-out", api.clockOut)
	ag.GET("/summary/:id", api.summary)
}

func (api *attendanceApi) bindClockRequest(ctx echo.Context) (attendance.ClockRequest, error) {
	var data attendance.ClockRequest
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to ClockRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return data, core.TranslateValidationErrors(err, api.translator)
	}
	return data, nil
}

func (api *attendanceApi) clockIn(ctx echo.Context) error {
	data, err := api.bindClockRequest(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.ClockIn(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "clocking in")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) clockOut(ctx echo.Context) error {
	data, err := api.bindClockRequest(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.ClockOut(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "clocking out")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Record{})
	}
	filter.From = core.CleanString(filter.From)
	filter.To = core.CleanString(filter.To)
	if err := api.validate.Struct(filter); err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	records, err := api.svc.Query(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := api.svc.Summary(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "summarizing hours")
	}
	return ctx.JSON(http.StatusOK, s)
}
