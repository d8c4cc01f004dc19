package main

import (
	"context"
	"fmt"
	"os"

	"github.com/deptcms/portal/internal/app/repositories"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/bootstrap"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cmsctl",
		Short:        "Operational commands for the department portal",
		SilenceUsage: true,
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "configs/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML configuration file")

	rootCmd.AddCommand(newMigrateCmd(), newReconcileCmd(), newExtractIDCmd())
	return rootCmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
			if err != nil {
				return err
			}
			database, err := bootstrap.SetupDatabase(cmd.Context(), cfg, lgr)
			if err != nil {
				return err
			}
			database.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
			return nil
		},
	}
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one attachment cleanup pass and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
			if err != nil {
				return err
			}
			database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer database.Close()

			attachments, err := bootstrap.SetupAttachments(ctx, cfg, repositories.NewIntentRepository(database.Pool), lgr)
			if err != nil {
				return err
			}

			runCtx, cancel := context.WithTimeout(ctx, cfg.Reconciler.RunTimeout)
			defer cancel()
			stats, err := attachments.Reconciler.RunOnce(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d resolved=%d failed=%d\n", stats.Scanned, stats.Resolved, stats.Failed)
			return nil
		},
	}
}

func newExtractIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract-id <url>",
		Short: "Print the file identifier embedded in a share URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := attachment.ExtractFileID(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
