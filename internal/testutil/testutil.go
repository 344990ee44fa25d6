// Package testutil wires the services over the in-memory database for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
	emailsvc "github.com/Evenson-7/OJTManagement-sub000/services/email"
	logsvc "github.com/Evenson-7/OJTManagement-sub000/services/logger"
	inmemdb "github.com/Evenson-7/OJTManagement-sub000/storage/database/inmem"
)

type Env struct {
	Conf       *core.Config
	DB         *inmemdb.DB
	Broker     *core.Broker
	Mailer     *emailsvc.ConsoleServiceMock
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Scales     *scoring.Registry

	UserRepo       user.Repository
	EvaluationRepo evaluation.Repository
	TemplateRepo   evaluation.TemplateRepository

	Users       *user.Service
	Evaluations *evaluation.Service
	Attendance  *attendance.Service
	Narratives  *narrative.Service
}

// Logger returns a logger that reports nothing.
func Logger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
}

// NewEnv returns the services over a fresh in-memory database, with the built-in templates stored.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	scales, err := scoring.NewRegistry()
	require.NoError(t, err)

	db := inmemdb.Open()
	env := &Env{
		Conf:           conf,
		DB:             db,
		Broker:         core.NewBroker(),
		Mailer:         emailsvc.NewConsoleServiceMock(conf),
		Logger:         Logger(),
		Validate:       validate,
		Translator:     translator,
		Scales:         scales,
		UserRepo:       inmemdb.NewUserRepository(db),
		EvaluationRepo: inmemdb.NewEvaluationRepository(db),
		TemplateRepo:   inmemdb.NewTemplateRepository(db),
	}
	env.Users = user.NewService(env.UserRepo, env.Broker)
	env.Evaluations = evaluation.NewService(env.EvaluationRepo, env.TemplateRepo, env.Users, scales, env.Mailer, env.Broker, env.Logger)
	env.Attendance = attendance.NewService(inmemdb.NewAttendanceRepository(db), env.Users, conf)
	env.Narratives = narrative.NewService(inmemdb.NewNarrativeRepository(db), env.Users, env.Mailer)

	require.NoError(t, env.Evaluations.EnsureBuiltinTemplates(context.Background()))
	return env
}

// CreateUser stores an active user straight through the repository.
func CreateUser(t *testing.T, repo user.Repository, role, name, department string, supervisorID ...string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:       name,
		Email:      core.SafeFileName(name) + "@test.test",
		Role:       role,
		Department: department,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if role == user.RoleIntern {
		usr.InternshipStatus = user.InternshipPending
		usr.RequiredHours = 486
	}
	if len(supervisorID) > 0 && supervisorID[0] != "" {
		usr.SupervisorID = supervisorID[0]
		usr.InternshipStatus = user.InternshipOngoing
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

// Cast is a small department used across the tests.
type Cast struct {
	Admin, Coordinator, Supervisor, OtherSupervisor user.User
	Intern, OtherIntern, Outsider                     user.User
}

// NewCast creates an IT department (coordinator, two supervisors, two interns) plus an HR intern.
func NewCast(t *testing.T, repo user.Repository) Cast {
	t.Helper()

	c := Cast{
		Admin:           CreateUser(t, repo, user.RoleAdmin, "Ada Admin", ""),
		Coordinator:     CreateUser(t, repo, user.RoleCoordinator, "Cora Coordinator", "IT"),
		Supervisor:      CreateUser(t, repo, user.RoleSupervisor, "Sam Supervisor", "IT"),
		OtherSupervisor: CreateUser(t, repo, user.RoleSupervisor, "Sid Supervisor", "IT"),
	}
	c.Intern = CreateUser(t, repo, user.RoleIntern, "Juan Dela Cruz", "IT", c.Supervisor.ID)
	c.OtherIntern = CreateUser(t, repo, user.RoleIntern, "Maria Santos", "IT", c.OtherSupervisor.ID)
	c.Outsider = CreateUser(t, repo, user.RoleIntern, "Hector Reyes", "HR")
	return c
}
