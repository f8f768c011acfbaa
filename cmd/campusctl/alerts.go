package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mr1hm/go-campus-alerts/internal/alerting"
	internalgrpc "github.com/mr1hm/go-campus-alerts/internal/grpc"
	"github.com/mr1hm/go-campus-alerts/internal/models"
)

type grpcFlags struct {
	addr  string
	token string
}

func (g *grpcFlags) dial() (*internalgrpc.Client, error) {
	token := g.token
	if token == "" {
		token = os.Getenv("CAMPUS_ALERTS_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("--token (or CAMPUS_ALERTS_TOKEN) is required; see campusctl token")
	}
	return internalgrpc.Dial(g.addr, token)
}

func newAlertsCmd() *cobra.Command {
	var g grpcFlags

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List, create and end alerts over gRPC",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.addr != "" {
				return nil
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			g.addr = fmt.Sprintf("localhost:%d", cfg.GRPC.Port)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&g.addr, "grpc-addr", "", "gRPC address (default localhost:GRPC_PORT)")
	cmd.PersistentFlags().StringVar(&g.token, "token", "", "session token")

	cmd.AddCommand(
		newAlertsListCmd(&g),
		newAlertsCreateCmd(&g),
		newAlertsSetActiveCmd(&g, "end", "Deactivate an alert", false),
		newAlertsSetActiveCmd(&g, "reopen", "Reactivate an alert", true),
	)
	return cmd
}

func newAlertsListCmd(g *grpcFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the alerts visible to the token's user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			alerts, err := c.ListAlerts(ctx, all)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), alertTable(alerts))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive alerts (admins only)")
	return cmd
}

func newAlertsCreateCmd(g *grpcFlags) *cobra.Command {
	var (
		in                        alerting.CreateAlertInput
		severity, scope           string
		states, districts, cities []string
		expiresIn                 time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Severity = models.Severity(severity)
			in.TargetScope = models.TargetScope(scope)
			in.TargetRegions = models.TargetRegions{States: states, Districts: districts, Cities: cities}
			if expiresIn > 0 {
				t := time.Now().Add(expiresIn)
				in.ExpiresAt = &t
			}

			c, err := g.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			a, err := c.CreateAlert(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", a.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "headline")
	f.StringVar(&in.Description, "description", "", "body text")
	f.StringVar(&severity, "severity", string(models.SeverityInfo), "info, warning or emergency")
	f.StringVar(&scope, "scope", string(models.ScopeGlobal), "global, state, district or city")
	f.StringVar(&in.Source, "source", "", "issuing body (default Institution Admin)")
	f.StringVar(&in.TargetInstitutionID, "institution", "", "target institution id")
	f.StringSliceVar(&states, "state", nil, "target state (repeatable)")
	f.StringSliceVar(&districts, "district", nil, "target district (repeatable)")
	f.StringSliceVar(&cities, "city", nil, "target city (repeatable)")
	f.DurationVar(&expiresIn, "expires-in", 0, "expiry relative to now")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("description")
	return cmd
}

func newAlertsSetActiveCmd(g *grpcFlags, use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <alert-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			a, err := c.SetAlertActive(ctx, args[0], active)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t\n", a.ID, a.Active)
			return nil
		},
	}
}

func alertTable(alerts []models.Alert) string {
	t := table.New().Headers("ID", "SEVERITY", "TITLE", "TARGET", "ACTIVE", "CREATED")
	for _, a := range alerts {
		t.Row(a.ID, string(a.Severity), a.Title, describeTarget(a.TargetRegions), fmt.Sprint(a.Active), a.CreatedAt.Local().Format(time.DateTime))
	}
	return t.String()
}

func describeTarget(r models.TargetRegions) string {
	if r.IsGlobal() {
		return "everyone"
	}
	var parts []string
	for _, set := range []struct {
		label string
		names []string
	}{{"states", r.States}, {"districts", r.Districts}, {"cities", r.Cities}} {
		if len(set.names) > 0 {
			parts = append(parts, set.label+"="+strings.Join(set.names, ","))
		}
	}
	return strings.Join(parts, " ")
}
