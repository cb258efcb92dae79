package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/taskdeck/core/internal/adapters/events"
	"github.com/taskdeck/core/internal/adapters/repository"
	"github.com/taskdeck/core/internal/application/services"
	"github.com/taskdeck/core/internal/infrastructure/clock"
	"github.com/taskdeck/core/internal/infrastructure/config"
	"github.com/taskdeck/core/internal/infrastructure/database"
	"github.com/taskdeck/core/internal/infrastructure/logger"
	"github.com/taskdeck/core/internal/infrastructure/metrics"
	"github.com/taskdeck/core/internal/infrastructure/server"
	"github.com/taskdeck/core/internal/ports"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run periodic sweeps and the operational HTTP endpoints",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

// NewSweepCommand creates the one-shot sweep command
func NewSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single notification sweep and exit",
		Long:  "Run one sweep over all eligible tasks. Useful when sweeps are triggered by an external scheduler such as system cron.",
		Run: func(cmd *cobra.Command, args []string) {
			runOnce()
		},
	}
}

// NewCompleteCommand creates the complete command
func NewCompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed and spawn its next occurrence",
		Long:  "Complete a task directly, applying the same recurrence hook the application calls. Intended for operations and debugging.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runComplete(args[0])
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print engine version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("TaskDeck Engine v1.0.0")
		},
	}
}

// engineDeps holds everything the engine commands assemble.
type engineDeps struct {
	cfg       *config.Config
	logger    *logger.Logger
	db        *database.DB
	publisher *events.RedisPublisher
	registry  *prometheus.Registry
	sweeper   *services.SweepService
	completer *services.CompletionService
}

func buildEngine() (*engineDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	var publisher *events.RedisPublisher
	if cfg.Redis.Enabled {
		publisher, err = events.NewRedisPublisher(cfg.Redis)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	taskRepo := repository.NewTaskRepository(db.DB)
	prefRepo := repository.NewPreferenceRepository(db.DB)
	notifRepo := repository.NewNotificationRepository(db.DB)
	projectRepo := repository.NewProjectRepository(db.DB)

	generator := services.NewNotificationService(appLogger)

	var pub ports.EventPublisher
	if publisher != nil {
		pub = publisher
	}

	sweeper := services.NewSweepService(
		taskRepo, prefRepo, notifRepo, generator, pub, clock.New(), m,
		services.SweepConfig{
			Workers:         cfg.Scheduler.Workers,
			BatchSize:       cfg.Scheduler.BatchSize,
			WritesPerSecond: cfg.Scheduler.WritesPerSecond,
		},
		appLogger,
	)

	completer := services.NewCompletionService(
		taskRepo, projectRepo, services.NewRecurrenceService(), pub, clock.New(), m, appLogger,
	)

	return &engineDeps{
		cfg:       cfg,
		logger:    appLogger,
		db:        db,
		publisher: publisher,
		registry:  registry,
		sweeper:   sweeper,
		completer: completer,
	}, nil
}

func (d *engineDeps) close() {
	if d.publisher != nil {
		d.publisher.Close()
	}
	d.db.Close()
	d.logger.Close()
}

func runServe() {
	deps, err := buildEngine()
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer deps.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic trigger. The engine has no cadence of its own; the interval
	// is purely a deployment concern.
	c := cron.New()
	spec := fmt.Sprintf("@every %s", deps.cfg.Scheduler.Interval)
	_, err = c.AddFunc(spec, func() {
		if _, err := deps.sweeper.Run(ctx); err != nil {
			deps.logger.Error("Sweep failed", "error", err)
		}
	})
	if err != nil {
		deps.logger.Fatal("Failed to schedule sweep", "spec", spec, "error", err)
	}
	c.Start()

	var eventsPinger server.Pinger
	if deps.publisher != nil {
		eventsPinger = deps.publisher
	}
	srv := server.New(deps.cfg, deps.db, eventsPinger, deps.registry, deps.logger)

	go func() {
		address := fmt.Sprintf("%s:%d", deps.cfg.Server.Host, deps.cfg.Server.Port)
		if err := srv.Start(address); err != nil {
			deps.logger.Info("Operational server stopped", "error", err)
		}
	}()

	deps.logger.Info("Engine started",
		"sweep_interval", deps.cfg.Scheduler.Interval.String(),
		"workers", deps.cfg.Scheduler.Workers,
		"environment", deps.cfg.App.Environment,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	deps.logger.Info("Shutting down")
	cancel()
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		deps.logger.Error("Operational server shutdown failed", "error", err)
	}
}

func runOnce() {
	deps, err := buildEngine()
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer deps.close()

	report, err := deps.sweeper.Run(context.Background())
	if err != nil {
		deps.logger.Fatal("Sweep failed", "error", err)
	}

	fmt.Printf("Sweep completed: %d tasks evaluated, %d notifications created, %d duplicates, %d failures in %s\n",
		report.TasksEvaluated, report.Created, report.Duplicates, report.Failures, report.Duration)
}

func runComplete(rawID string) {
	taskID, err := uuid.Parse(rawID)
	if err != nil {
		log.Fatalf("Invalid task id %q: %v", rawID, err)
	}

	deps, err := buildEngine()
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer deps.close()

	successor, err := deps.completer.CompleteTask(context.Background(), taskID)
	if err != nil {
		deps.logger.Fatal("Completion failed", "task_id", taskID, "error", err)
	}

	if successor == nil {
		fmt.Printf("Task %s completed, no successor (not recurring or series ended)\n", taskID)
		return
	}
	fmt.Printf("Task %s completed, spawned %s due %s\n", taskID, successor.ID, successor.DueDate.Format(time.RFC3339))
}

func newMigrator() (*migrate.Migrate, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migration instance: %w", err)
	}

	return m, db, nil
}

func runMigration(direction string) {
	m, db, err := newMigrator()
	if err != nil {
		log.Fatalf("Migration setup failed: %v", err)
	}
	defer db.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration failed: %v", err)
	}

	if err == migrate.ErrNoChange {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	m, db, err := newMigrator()
	if err != nil {
		log.Fatalf("Migration setup failed: %v", err)
	}
	defer db.Close()

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}
