package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
)

func (cli *commandLine) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage evaluation templates",
	}

	var dryRun bool
	importCmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Import evaluation templates from YAML files",
		Long: `Imports every template of the YAML files under DIR (` + evaluation.SeedPattern + `).
A template replaces the stored one of the same id; evaluations already sent keep their copy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.importTemplates(cmd.Context(), cmd.OutOrStdout(), args[0], dryRun)
		},
	}
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only check the files")

	cmd.AddCommand(importCmd)
	return cmd
}

func (cli *commandLine) importTemplates(ctx context.Context, out io.Writer, dir string, dryRun bool) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", dir)
	}

	seeder, err := evaluation.NewSeeder()
	if err != nil {
		return err
	}
	files, err := seeder.Load(os.DirFS(dir))
	if err != nil {
		return err
	}

	// validate everything before storing anything
	for _, f := range files {
		for i := range f.Templates {
			if err := f.Templates[i].Validate(cli.validate, cli.translator, cli.evals.Scales()); err != nil {
				return errors.Wrapf(err, "%s: template %d", f.Path, i+1)
			}
		}
	}

	var count int
	for _, f := range files {
		for _, nt := range f.Templates {
			count++
			if dryRun {
				fmt.Fprintf(out, "ok %s %q (%s)\n", nt.ID, nt.Title, f.Path)
				continue
			}
			tmpl, created, err := cli.evals.ImportTemplate(ctx, nt)
			if err != nil {
				return errors.Wrapf(err, "%s: importing %q", f.Path, nt.Title)
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(out, "%s %s %q (%s)\n", verb, tmpl.ID, tmpl.Title, f.Path)
		}
	}
	if count == 0 {
		fmt.Fprintf(out, "no templates found in %s\n", dir)
	}
	return nil
}
