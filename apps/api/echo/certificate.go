package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core/report"
)

type certificateApi struct {
	svc *report.Service
}

// registerCertificateAPI registers the public verification page data, which certificate QR codes point to,
// and the authed PDF download.
func registerCertificateAPI(g *echo.Group, auth []echo.MiddlewareFunc, svc *report.Service) {
	api := certificateApi{svc: svc}

	cg := g.Group("/certificates")
	cg.GET("/:id", api.verify)
	cg.GET("/:id/pdf", api.download, auth...)
	cg.POST("/:id/send", api.send, auth...)
}

func (api *certificateApi) verify(ctx echo.Context) error {
	info, err := api.svc.Verify(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "verifying certificate")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *certificateApi) download(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	doc, err := api.svc.Certificate(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rendering certificate")
	}
	return sendDocument(ctx, doc)
}

func (api *certificateApi) send(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.SendCertificate(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "sending certificate")
	}
	return ctx.NoContent(http.StatusNoContent)
}
