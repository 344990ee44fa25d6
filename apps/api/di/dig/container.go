package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/Evenson-7/OJTManagement-sub000/apps/api/echo"
	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/analytics"
	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
	"github.com/Evenson-7/OJTManagement-sub000/core/report"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
	emailsvc "github.com/Evenson-7/OJTManagement-sub000/services/email"
	logsvc "github.com/Evenson-7/OJTManagement-sub000/services/logger"
	"github.com/Evenson-7/OJTManagement-sub000/storage/database"
	sqlxdb "github.com/Evenson-7/OJTManagement-sub000/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, conf.Database.Engine); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, log.New(os.Stdout, "EMAIL : ", log.LstdFlags))
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return validate, translator
}

func newScales(conf *core.Config) (*scoring.Registry, error) {
	return scoring.LoadRegistry(conf.Scoring.ScalesFile)
}

// The core services take their user dependency as a narrow interface; dig resolves concrete types.

func newEvaluationService(
	repo evaluation.Repository,
	templates evaluation.TemplateRepository,
	users *user.Service,
	scales *scoring.Registry,
	mailer core.EmailService,
	broker *core.Broker,
	logger core.Logger,
) *evaluation.Service {
	return evaluation.NewService(repo, templates, users, scales, mailer, broker, logger)
}

func newAttendanceService(repo attendance.Repository, users *user.Service, conf *core.Config) *attendance.Service {
	return attendance.NewService(repo, users, conf)
}

func newNarrativeService(repo narrative.Repository, users *user.Service, mailer core.EmailService) *narrative.Service {
	return narrative.NewService(repo, users, mailer)
}

func newAnalyticsService(
	users *user.Service,
	evals *evaluation.Service,
	broker *core.Broker,
	conf *core.Config,
	logger core.Logger,
) (*analytics.Service, error) {
	th := analytics.ThresholdsFromConfig(conf.Analytics)
	if err := th.Validate(); err != nil {
		return nil, errors.Wrap(err, "analytics thresholds")
	}
	return analytics.NewService(users, evals, broker, th, logger), nil
}

func newReportService(
	evals *evaluation.Service,
	users *user.Service,
	hours *attendance.Service,
	mailer core.EmailService,
	conf *core.Config,
) *report.Service {
	return report.NewService(evals, users, hours, mailer, conf)
}

type serverParams struct {
	dig.In

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

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Options{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		Users:       p.Users,
		Evaluations: p.Evaluations,
		Analytics:   p.Analytics,
		Attendance:  p.Attendance,
		Narratives:  p.Narratives,
		Reports:     p.Reports,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(newScales))
	must(c.Provide(core.NewBroker))

	must(c.Provide(sqlxdb.NewUserRepository))
	must(c.Provide(sqlxdb.NewTemplateRepository))
	must(c.Provide(sqlxdb.NewEvaluationRepository))
	must(c.Provide(sqlxdb.NewAttendanceRepository))
	must(c.Provide(sqlxdb.NewNarrativeRepository))

	must(c.Provide(user.NewService))
	must(c.Provide(newEvaluationService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(newNarrativeService))
	must(c.Provide(newAnalyticsService))
	must(c.Provide(newReportService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
