package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"kidcoins/internal/models"
	"kidcoins/internal/service"

	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The root already migrated on open.
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", a.cfg.DatabaseType)
			return nil
		},
	}
}

func newBalanceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <childId>",
		Short: "Show a child's balance, reserved and available coins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			childID, err := parseID(args[0])
			if err != nil {
				return err
			}
			admin := service.Actor{Role: models.RoleAdmin}
			summary, err := a.services.Ledger.Summary(cmd.Context(), admin, childID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, summary)
		},
	}
}

func newAdjustCommand(a *app) *cobra.Command {
	var (
		adminID     int64
		description string
	)

	cmd := &cobra.Command{
		Use:   "adjust <childId> <amount>",
		Short: "Post a manual adjustment on behalf of an admin account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			childID, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			user, err := a.services.Auth.Me(cmd.Context(), service.Actor{ID: adminID})
			if err != nil {
				return err
			}
			if user.Role != models.RoleAdmin {
				return fmt.Errorf("user %d is not an admin", adminID)
			}

			entry, err := a.services.Ledger.Adjust(cmd.Context(), service.Actor{ID: user.ID, Role: user.Role}, childID, amount, description)
			if err != nil {
				return err
			}
			a.log.WithField("entry", entry.ID).Info("adjustment posted")
			return writeJSON(cmd, entry)
		},
	}

	cmd.Flags().Int64Var(&adminID, "admin-id", 0, "ID of the admin account posting the adjustment")
	cmd.Flags().StringVar(&description, "description", "", "reason shown in the child's history")
	_ = cmd.MarkFlagRequired("admin-id")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export users, families and the ledger as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				return a.services.Export.ExportToWriter(cmd.Context(), cmd.OutOrStdout())
			}
			if err := a.services.Export.Export(cmd.Context(), output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newSweepCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-codes",
		Short: "Delete expired unused invitation codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := a.services.Family.SweepExpiredCodes(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d invitation codes\n", removed)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
