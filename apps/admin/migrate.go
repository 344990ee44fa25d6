package main

import (
	"github.com/spf13/cobra"

	"github.com/Evenson-7/OJTManagement-sub000/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a database migration command",
		Long: `Runs a goose command over the embedded migrations:
  up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, fix`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.migrate(args)
		},
	}
}

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(cli.db.DB, cli.conf.Database.Engine, args[0], args[1:]...)
}
