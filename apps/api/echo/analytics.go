package echoapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/analytics"
)

const liveWriteTimeout = 15 * time.Second

type analyticsApi struct {
	svc    *analytics.Service
	logger core.Logger
	accept *websocket.AcceptOptions
}

// registerAnalyticsAPI registers the analytics endpoints on g and the live stream on root,
// authenticated by liveAuth (the token is read from the query string).
func registerAnalyticsAPI(
	g, root *echo.Group,
	liveAuth []echo.MiddlewareFunc,
	svc *analytics.Service,
	logger core.Logger,
	conf *core.Config,
) {
	api := analyticsApi{
		svc:    svc,
		logger: logger,
		accept: acceptOptions(conf),
	}

	ag := g.Group("/analytics")
	ag.GET("/cohort", api.cohort)
	ag.GET("/interns/:id", api.subject)
	ag.GET("/badges", api.badges)
	ag.GET("/thresholds", api.thresholds)

	root.GET("/analytics/live", api.live, liveAuth...)
}

// acceptOptions only lets the frontend open live streams, unless in DEV mode.
func acceptOptions(conf *core.Config) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{InsecureSkipVerify: conf.Debug}
	if u, err := url.Parse(conf.FrontendBaseURL); err == nil && u.Host != "" {
		opts.OriginPatterns = []string{u.Host}
	}
	return opts
}

func (api *analyticsApi) cohort(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	res, err := api.svc.Cohort(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "computing cohort analytics")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *analyticsApi) subject(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	stats, err := api.svc.Subject(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing intern analytics")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *analyticsApi) badges(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, analytics.Catalog())
}

func (api *analyticsApi) thresholds(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Thresholds())
}

// live streams the cohort analytics of the current user over a websocket,
// pushing a new update whenever an evaluation or the roster changes.
func (api *analyticsApi) live(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ws, err := websocket.Accept(ctx.Response(), ctx.Request(), api.accept)
	if err != nil {
		return nil // Accept already wrote the error response
	}
	defer ws.CloseNow()

	// the client only listens: reading is left to CloseRead, which cancels wsCtx once the peer closes
	wsCtx := ws.CloseRead(ctx.Request().Context())

	err = api.svc.Watch(wsCtx, ctxUsr, func(u analytics.Update) error {
		writeCtx, cancel := context.WithTimeout(wsCtx, liveWriteTimeout)
		defer cancel()
		return wsjson.Write(writeCtx, ws, u)
	})
	if err != nil && wsCtx.Err() == nil {
		api.logger.Warn("live analytics stream closed", errors.Wrap(err, "watching analytics"), ctxUsr)
		ws.Close(websocket.StatusInternalError, "analytics stream failed")
		return nil
	}
	ws.Close(websocket.StatusNormalClosure, "")
	return nil
}
