package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

type addUserOptions struct {
	name       string
	email      string
	role       string
	department string
	supervisor string // email
	hours      float64
}

func (cli *commandLine) addUserCommand() *cobra.Command {
	var opts addUserOptions
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or update an account",
		Long: `Creates the account of the given email, or updates and reactivates it if it exists.
Interns may be assigned a supervisor by email.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, created, err := cli.addUser(cmd.Context(), opts)
			if err != nil {
				return err
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s <%s> (%s)\n", verb, usr.Name, usr.Email, usr.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.name, "name", "", "full name")
	flags.StringVar(&opts.email, "email", "", "email address, identifies the account")
	flags.StringVar(&opts.role, "role", "", "one of admin, coordinator, supervisor, intern (default intern for new accounts)")
	flags.StringVar(&opts.department, "department", "", "department, eg. IT")
	flags.StringVar(&opts.supervisor, "supervisor", "", "email of the intern's supervisor")
	flags.Float64Var(&opts.hours, "hours", 0, "required OJT hours of an intern")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, opts addUserOptions) (user.User, bool, error) {
	var supervisorID string
	if opts.supervisor != "" {
		sup, err := cli.users.GetByEmail(ctx, opts.supervisor)
		if err != nil {
			return user.User{}, false, errors.Wrap(err, "finding supervisor")
		}
		supervisorID = sup.ID
	}

	usr, err := cli.users.GetByEmail(ctx, opts.email)
	switch {
	case errors.Cause(err) == user.ErrNotFound:
		role := opts.role
		if role == "" {
			role = user.RoleIntern
		}
		nu := user.NewUser{
			Name:          opts.name,
			Email:         opts.email,
			Role:          role,
			Department:    opts.department,
			SupervisorID:  supervisorID,
			RequiredHours: opts.hours,
		}
		if err = nu.Validate(ctx, cli.validate, cli.translator, cli.users); err != nil {
			return user.User{}, false, err
		}
		usr, err = cli.users.Create(ctx, nu)
		return usr, err == nil, err
	case err != nil:
		return user.User{}, false, err
	}

	active := true
	uu := user.UpdateUser{Name: opts.name, Role: opts.role, IsActive: &active}
	if opts.department != "" {
		uu.Department = &opts.department
	}
	if opts.hours > 0 {
		uu.RequiredHours = &opts.hours
	}
	if err = uu.Validate(ctx, cli.validate, cli.translator, usr, cli.users); err != nil {
		return user.User{}, false, err
	}
	if usr, err = cli.users.Update(ctx, usr, uu); err != nil {
		return user.User{}, false, err
	}

	if supervisorID != "" && supervisorID != usr.SupervisorID {
		if usr, err = cli.users.AssignSupervisor(ctx, usr, supervisorID); err != nil {
			return user.User{}, false, err
		}
	}
	return usr, false, nil
}
