package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mr1hm/go-campus-alerts/internal/auth"
	"github.com/mr1hm/go-campus-alerts/internal/models"
)

func newPromoteCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant a role to a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, closeDB, err := openAuth(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			u, err := svc.Promote(cmd.Context(), args[0], models.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(models.RoleInstitutionAdmin), "role to grant (user, institution_admin, super_admin)")
	return cmd
}

type seedAccount struct {
	input auth.RegisterInput
	role  models.Role
}

var seedAccounts = []seedAccount{
	{
		input: auth.RegisterInput{
			Name:     "Super Admin",
			Email:    "admin@example.com",
			Password: "adminpassword",
			Location: models.Location{State: "Delhi", District: "New Delhi", City: "New Delhi", Country: "India"},
		},
		role: models.RoleSuperAdmin,
	},
	{
		input: auth.RegisterInput{
			Name:     "Institution Admin",
			Email:    "inst@example.com",
			Password: "instpassword",
			Location: models.Location{State: "Telangana", District: "Hyderabad", City: "Hyderabad", Country: "India"},
		},
		role: models.RoleInstitutionAdmin,
	},
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo admin accounts if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, closeDB, err := openAuth(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			for _, acct := range seedAccounts {
				u, created, err := svc.EnsureUser(cmd.Context(), acct.input, acct.role)
				if err != nil {
					return fmt.Errorf("seeding %s: %w", acct.input.Email, err)
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Email, u.Role)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "exists  %s (%s)\n", u.Email, u.Role)
				}
			}
			return nil
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	var (
		in   auth.RegisterInput
		role string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register a user directly in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.Role(role).Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, closeDB, err := openAuth(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			u, created, err := svc.EnsureUser(cmd.Context(), in, models.Role(role))
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("%s is already registered", u.Email)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", u.Email, u.Role, u.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.Email, "email", "", "login email")
	f.StringVar(&in.Password, "password", "", "password (at least 6 characters)")
	f.StringVar(&role, "role", string(models.RoleUser), "role (user, institution_admin, super_admin)")
	f.StringVar(&in.Location.State, "state", "", "state")
	f.StringVar(&in.Location.District, "district", "", "district")
	f.StringVar(&in.Location.City, "city", "", "city")
	f.StringVar(&in.Location.Country, "country", "", "country")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue a session token for a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireJWTSecret(); err != nil {
				return err
			}
			svc, closeDB, err := openAuth(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			token, err := svc.IssueToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
