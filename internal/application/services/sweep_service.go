package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/infrastructure/logger"
	"github.com/taskdeck/core/internal/infrastructure/metrics"
	"github.com/taskdeck/core/internal/ports"
)

// SweepConfig tunes one sweep's resource usage.
type SweepConfig struct {
	// Workers bounds concurrent per-task evaluation. Tasks are independent;
	// only the notification store is shared, and its uniqueness constraint
	// carries the dedup guarantee under concurrency.
	Workers int
	// BatchSize caps how many tasks one sweep loads. The remainder is
	// picked up on the next trigger.
	BatchSize int
	// WritesPerSecond throttles notification inserts. Zero disables the
	// limiter.
	WritesPerSecond float64
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	return c
}

// SweepService executes one pass of the notification scheduler across all
// eligible tasks. Failures are isolated per task: nothing is marked
// "already attempted", so a failed task is retried on the next sweep and
// correctness rests on the store's dedup constraint alone.
type SweepService struct {
	taskRepo  ports.TaskRepository
	prefRepo  ports.PreferenceRepository
	notifRepo ports.NotificationRepository
	generator *NotificationService
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *logger.Logger
	metrics   *metrics.Metrics
	limiter   *rate.Limiter
	cfg       SweepConfig
}

// NewSweepService creates a new sweep runner.
func NewSweepService(
	taskRepo ports.TaskRepository,
	prefRepo ports.PreferenceRepository,
	notifRepo ports.NotificationRepository,
	generator *NotificationService,
	publisher ports.EventPublisher,
	clock ports.Clock,
	m *metrics.Metrics,
	cfg SweepConfig,
	log *logger.Logger,
) *SweepService {
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.WritesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WritesPerSecond), 1)
	}

	return &SweepService{
		taskRepo:  taskRepo,
		prefRepo:  prefRepo,
		notifRepo: notifRepo,
		generator: generator,
		publisher: publisher,
		clock:     clock,
		logger:    log,
		metrics:   m,
		limiter:   limiter,
		cfg:       cfg,
	}
}

// Run executes one sweep: for every task with a due date and no completion
// timestamp, load the owner's preferences and the task's notification
// history, generate, and persist. Returns a report of what happened; the
// only error returned is a failure to load the task feed itself.
func (s *SweepService) Run(ctx context.Context) (*ports.SweepReport, error) {
	now := s.clock.Now()
	report := &ports.SweepReport{Started: now}

	tasks, err := s.taskRepo.ListNotifiable(ctx, ports.NotifiableTaskFilter{Limit: s.cfg.BatchSize})
	if err != nil {
		return nil, fmt.Errorf("list notifiable tasks: %w", err)
	}

	jobs := make(chan *entities.Task)
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
		failures   int
	)

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				c, d, err := s.processTask(ctx, task, now)
				mu.Lock()
				created += c
				duplicates += d
				if err != nil {
					failures++
				}
				mu.Unlock()
				if err != nil {
					s.logger.Error("Sweep task failed, will retry next sweep",
						"task_id", task.ID, "error", err)
				}
			}
		}()
	}

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return report, ctx.Err()
		case jobs <- task:
		}
	}
	close(jobs)
	wg.Wait()

	report.TasksEvaluated = len(tasks)
	report.Created = created
	report.Duplicates = duplicates
	report.Failures = failures
	report.Duration = s.clock.Now().Sub(now)

	if s.metrics != nil {
		s.metrics.ObserveSweep(report.TasksEvaluated, report.Created, report.Duplicates, report.Failures, report.Duration)
	}

	s.logger.Info("Sweep completed",
		"tasks", report.TasksEvaluated,
		"created", report.Created,
		"duplicates", report.Duplicates,
		"failures", report.Failures,
		"duration_ms", report.Duration.Milliseconds(),
	)

	return report, nil
}

// processTask evaluates one task and persists whatever the generator
// returned. A duplicate insert means another sweep (or a racing worker)
// already created that notification; it is counted but not treated as an
// error.
func (s *SweepService) processTask(ctx context.Context, task *entities.Task, now time.Time) (created, duplicates int, err error) {
	pref, err := s.prefRepo.GetByUser(ctx, task.OwnerID)
	if err != nil {
		if !errors.Is(err, entities.ErrPreferenceNotFound) {
			return 0, 0, fmt.Errorf("load preferences: %w", err)
		}
		pref = entities.DefaultPreference(task.OwnerID)
	}

	existing, err := s.notifRepo.ListByTask(ctx, task.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("load notification history: %w", err)
	}

	for _, n := range s.generator.Generate(task, pref, existing, now) {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return created, duplicates, err
			}
		}

		if err := s.notifRepo.Create(ctx, n); err != nil {
			if errors.Is(err, entities.ErrDuplicateNotification) {
				duplicates++
				s.logger.Debug("Notification already created elsewhere",
					"task_id", task.ID, "kind", n.Kind)
				continue
			}
			return created, duplicates, fmt.Errorf("persist notification: %w", err)
		}
		created++

		if s.publisher != nil {
			if err := s.publisher.NotificationCreated(ctx, n); err != nil {
				// Fire-and-forget: clients fall back to polling.
				s.logger.Warn("Failed to announce notification", "task_id", task.ID, "error", err)
			}
		}
	}

	return created, duplicates, nil
}
