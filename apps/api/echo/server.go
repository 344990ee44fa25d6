package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/analytics"
	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
	"github.com/Evenson-7/OJTManagement-sub000/core/report"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

// Options holds what the server needs to serve the API.
type Options struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	Users       *user.Service
	Evaluations *evaluation.Service
	Analytics   *analytics.Service
	Attendance  *attendance.Service
	Narratives  *narrative.Service
	Reports     *report.Service
}

type Server struct {
	opts     Options
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(opts Options) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(opts.Conf, "Conf"),
		vala.IsNotNil(opts.Logger, "Logger"),
		vala.IsNotNil(opts.Validate, "Validate"),
		vala.IsNotNil(opts.Translator, "Translator"),
		vala.IsNotNil(opts.Users, "Users"),
		vala.IsNotNil(opts.Evaluations, "Evaluations"),
		vala.IsNotNil(opts.Analytics, "Analytics"),
		vala.IsNotNil(opts.Attendance, "Attendance"),
		vala.IsNotNil(opts.Narratives, "Narratives"),
		vala.IsNotNil(opts.Reports, "Reports"),
	).CheckAndPanic()

	s := &Server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !(conf.Server.DisableReqLogs || conf.TestMode) {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	loadUser := userMiddleware(s.opts.Users)
	jwt := middleware.JWTWithConfig(newJWTConfig(conf.SecretKey, ""))
	queryJWT := middleware.JWTWithConfig(newJWTConfig(conf.SecretKey, queryTokenLookup))

	// the certificate API serves the public verification data too
	registerCertificateAPI(v1, []echo.MiddlewareFunc{jwt, loadUser}, s.opts.Reports)

	// authed endpoints
	authed := v1.Group("", jwt, loadUser)
	registerUserAPI(authed, s.opts.Users, s.opts.Evaluations, s.opts.Validate, s.opts.Translator)
	registerTemplateAPI(authed, s.opts.Evaluations, s.opts.Validate, s.opts.Translator)
	registerEvaluationAPI(authed, s.opts.Evaluations, s.opts.Reports, s.opts.Validate, s.opts.Translator)
	registerAttendanceAPI(authed, s.opts.Attendance, s.opts.Validate, s.opts.Translator)
	registerNarrativeAPI(authed, s.opts.Narratives, s.opts.Validate, s.opts.Translator)
	registerAnalyticsAPI(authed, v1, []echo.MiddlewareFunc{queryJWT, loadUser}, s.opts.Analytics, s.opts.Logger, conf)
}

// Start serves until the server is shut down; failures are reported on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the "+s.opts.Conf.AppName+" API!")
}
