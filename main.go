package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"smart-planner/core/config"
	"smart-planner/core/logger"
	"smart-planner/core/server"
	"smart-planner/modules/planner/render"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "smart-planner",
		Short:         "Weekly planner API, worker and terminal view",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")
	rootCmd.AddCommand(serveCmd(), workerCmd(), weekCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("run error", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return server.Serve(cmd.Context(), cfg)
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued schedule applies and send weekly digests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return server.RunWorker(cmd.Context(), cfg)
		},
	}
}

func weekCmd() *cobra.Command {
	var userID, anchor string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print a user's week grid and hour summary",
		Example: `
smart-planner week --user 5b0c...
smart-planner week --user 5b0c... --anchor 2024-03-05
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// keep the grid readable
			logger.SetOutput(os.Stderr)

			app, err := server.NewApp(cmd.Context(), cfg, server.Options{Offline: true})
			if err != nil {
				return err
			}
			defer app.Close()

			view, appErr := app.Planner.GetWeek(cmd.Context(), id, anchor)
			if appErr != nil {
				return appErr
			}
			return render.Week(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVarP(&anchor, "anchor", "a", "", "any date in the week, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
