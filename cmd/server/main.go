package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/eventsphere/api/internal/app"
	"github.com/eventsphere/api/internal/config"
	"github.com/eventsphere/api/internal/jobs"
)

const shutdownTimeout = 30 * time.Second

// overrides holds command-line values that win over env and file settings
type overrides struct {
	port     string
	env      string
	driver   string
	logLevel string
	logDir   string
	noJobs   bool
}

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:          "eventsphere",
		Short:        "EventSphere event management API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath != "" {
				return os.Setenv("CONFIG_FILE", cfgPath)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a TOML config file (sets CONFIG_FILE)")

	root.AddCommand(serveCmd(), tasksCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the lifecycle scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			cfg, err := loadConfig(func(cfg *config.Config) { o.apply(cfg, changed) })
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&o.port, "port", "", "HTTP listen port")
	cmd.Flags().StringVar(&o.env, "env", "", "runtime environment (development, production)")
	cmd.Flags().StringVar(&o.driver, "db-driver", "", "store driver (surrealdb, memory)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&o.logDir, "log-dir", "", "directory for daily log files")
	cmd.Flags().BoolVar(&o.noJobs, "no-jobs", false, "do not run the lifecycle scheduler")
	return cmd
}

func (o overrides) apply(cfg *config.Config, changed map[string]bool) {
	if changed["port"] {
		cfg.Server.Port = o.port
	}
	if changed["env"] {
		cfg.Server.Env = o.env
	}
	if changed["db-driver"] {
		cfg.Database.Driver = o.driver
	}
	if changed["log-level"] {
		cfg.Log.Level = o.logLevel
	}
	if changed["log-dir"] {
		cfg.Log.Dir = o.logDir
	}
	if changed["no-jobs"] && o.noJobs {
		cfg.Jobs.Enabled = false
	}
}

func loadConfig(override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(cfg *config.Config) error {
	logger, logFile, err := app.NewLogger(cfg.Log.Level, cfg.Log.Dir, time.Now())
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	slog.SetDefault(logger)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", slog.String("error", err.Error()))
		return err
	}
	defer a.Close()

	if !cfg.Jobs.Enabled {
		a.Scheduler.Stop()
		logger.Info("lifecycle scheduler disabled")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect or run lifecycle tasks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List lifecycle tasks and their periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			periods := map[jobs.TaskName]time.Duration{
				jobs.TaskUpdateEventStatuses: cfg.Jobs.StatusInterval,
				jobs.TaskDailyReport:         cfg.Jobs.ReportInterval,
				jobs.TaskCleanupLogs:         cfg.Jobs.LogCleanupInterval,
				jobs.TaskUpdateUserActivity:  cfg.Jobs.UserActivityInterval,
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK\tPERIOD")
			for _, name := range jobs.KnownTasks() {
				fmt.Fprintf(tw, "%s\t%s\n", name, periods[name])
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run one lifecycle task immediately and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := jobs.ParseTaskName(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			logger, logFile, err := app.NewLogger(cfg.Log.Level, cfg.Log.Dir, time.Now())
			if err != nil {
				return err
			}
			defer func() { _ = logFile.Close() }()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Scheduler.RunNow(cmd.Context(), name); err != nil {
				return fmt.Errorf("task %s failed: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %s completed\n", name)
			return nil
		},
	})

	return cmd
}
