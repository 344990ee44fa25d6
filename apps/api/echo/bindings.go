package echoapi

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/report"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads "?ordering=name,-created_at", keeping only the allowed fields.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}

// sendDocument writes a rendered document as a PDF download.
func sendDocument(ctx echo.Context, doc report.Document) error {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName})
	ctx.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return ctx.Blob(http.StatusOK, "application/pdf", doc.Data)
}
