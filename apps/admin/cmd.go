package main

import (
	"context"
	"errors"
	"io"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/analytics"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
	sqlxdb "github.com/Evenson-7/OJTManagement-sub000/storage/database/sqlx"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	db         *sqlx.DB
	out        io.Writer
	color      bool // style the output; only when stdout is a terminal
	validate   *validator.Validate
	translator ut.Translator

	users     *user.Service
	evals     *evaluation.Service
	analytics *analytics.Service
}

func newCommandLine(conf *core.Config, db *sqlx.DB, out io.Writer, logger core.Logger, mailer core.EmailService) (*commandLine, error) {
	scales, err := scoring.LoadRegistry(conf.Scoring.ScalesFile)
	if err != nil {
		return nil, err
	}
	th := analytics.ThresholdsFromConfig(conf.Analytics)
	if err = th.Validate(); err != nil {
		return nil, err
	}

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	broker := core.NewBroker()
	users := user.NewService(sqlxdb.NewUserRepository(db), broker)
	evals := evaluation.NewService(
		sqlxdb.NewEvaluationRepository(db),
		sqlxdb.NewTemplateRepository(db),
		users, scales, mailer, broker, logger,
	)

	return &commandLine{
		conf:       conf,
		db:         db,
		out:        out,
		validate:   validate,
		translator: translator,
		users:      users,
		evals:      evals,
		analytics:  analytics.NewService(users, evals, broker, th, logger),
	}, nil
}

func (cli *commandLine) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "admin",
		Short: "OJT Portal administration",
		Long: `Administrative tasks of the OJT Portal: database migrations, accounts,
access tokens, evaluation templates and the cohort leaderboard.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCommand(),
		cli.addUserCommand(),
		cli.tokenCommand(),
		cli.templatesCommand(),
		cli.leaderboardCommand(),
	)
	return root
}

// run executes the command line args, args[0] being the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCommand()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// describe renders err for the terminal, listing the invalid fields of a validation error.
func describe(err error) string {
	var verr *core.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) == 0 {
		return err.Error()
	}
	flds := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		flds = append(flds, f.Field+": "+f.Error)
	}
	return "invalid input: " + strings.Join(flds, "; ")
}
