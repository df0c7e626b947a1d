package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"planner/pkg/config"
	"planner/pkg/ingest"
	"planner/pkg/logger"
	"planner/pkg/metrics"
	"planner/pkg/planner"
	"planner/process/inbox"
	"planner/process/report"
	"planner/process/retry"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfg config.Config
	root := &cobra.Command{
		Use:           "planner",
		Short:         "Personal planner backend with PDF task ingestion",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			return logger.Setup(cfg.Logging)
		},
	}
	root.AddCommand(
		serveCmd(&cfg),
		migrateCmd(&cfg),
		ingestCmd(&cfg),
		inboxCmd(&cfg),
		reportCmd(&cfg),
		retryCmd(&cfg),
	)
	return root
}

// runWithApp builds the shared services, runs fn and logs a failure.
func runWithApp(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, *cfg)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return err
	}
	defer a.Close()
	if err := fn(ctx, a); err != nil {
		log.Error().Err(err).Str("command", cmd.Name()).Msg("command failed")
		return err
	}
	return nil
}

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, cfg, func(ctx context.Context, a *app) error {
				if cfg.GinMode != "" {
					gin.SetMode(cfg.GinMode)
				}
				metrics.MustRegister()
				r := gin.New()
				r.Use(gin.Recovery(), accessLog(logger.WithComponent("http")))
				setupRoutes(r, newServer(a.planner, a.ingest, cfg.Upload.MaxBytes))

				srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
				errCh := make(chan error, 1)
				go func() { errCh <- srv.ListenAndServe() }()
				log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}
}

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(*cfg)
			if err != nil {
				return err
			}
			migrate(db)
			fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			return nil
		},
	}
}

func ingestCmd(cfg *config.Config) *cobra.Command {
	var userID, date string
	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Run the ingestion pipeline for one PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduled, err := scheduledDate(date)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runWithApp(cmd, cfg, func(ctx context.Context, a *app) error {
				res, err := a.ingest.Ingest(ctx, ingest.Upload{
					UserID:        userID,
					Filename:      filepath.Base(args[0]),
					Data:          data,
					ScheduledDate: scheduled,
				})
				if res != nil {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "ingestion %s: %s, %d tasks\n", res.Ingestion.ID, res.Ingestion.Status, len(res.TasksCreated))
					for _, t := range res.TasksCreated {
						fmt.Fprintf(out, "  - %s\n", t)
					}
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id the tasks belong to")
	cmd.Flags().StringVar(&date, "date", "", "scheduled date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func inboxCmd(cfg *config.Config) *cobra.Command {
	var opts inbox.Options
	var date string
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Ingest every PDF in a directory, optionally watching for new ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduled, err := scheduledDate(date)
			if err != nil {
				return err
			}
			opts.ScheduledDate = scheduled
			return runWithApp(cmd, cfg, func(ctx context.Context, a *app) error {
				sum, err := inbox.Run(ctx, a.ingest, opts)
				fmt.Fprintf(cmd.OutOrStdout(), "processed=%d failed=%d tasks=%d\n", sum.Processed, sum.Failed, sum.Tasks)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id the tasks belong to")
	cmd.Flags().StringVar(&opts.Dir, "dir", "inbox", "directory to scan")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "keep watching for new files")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel ingestions (default NumCPU)")
	cmd.Flags().StringVar(&date, "date", "", "scheduled date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func reportCmd(cfg *config.Config) *cobra.Command {
	var userID, month string
	var list bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a monthly ingestion summary for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, cfg, func(ctx context.Context, a *app) error {
				return report.Run(ctx, a.db, cmd.OutOrStdout(), userID, month, list)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&month, "month", time.Now().UTC().Format("2006-01"), "month YYYY-MM")
	cmd.Flags().BoolVar(&list, "list", false, "list the ingestions")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func retryCmd(cfg *config.Config) *cobra.Command {
	var userID, date string
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-run failed ingestions from their stored uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduled, err := scheduledDate(date)
			if err != nil {
				return err
			}
			return runWithApp(cmd, cfg, func(ctx context.Context, a *app) error {
				outcomes, err := retry.Run(ctx, a.repo, a.ingest, userID, scheduled)
				for _, o := range outcomes {
					status := "ok"
					if o.Err != nil {
						status = o.Err.Error()
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s tasks=%d %s\n", o.PreviousID, o.NewID, o.Tasks, status)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&date, "date", "", "scheduled date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// scheduledDate parses a --date flag, defaulting to today in UTC.
func scheduledDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return planner.ParseDate("date", s)
}
