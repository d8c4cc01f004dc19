package attachment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ReconcilerConfig controls the cleanup pass.
type ReconcilerConfig struct {
	Schedule    string
	BatchSize   int
	MaxAttempts int
	RunTimeout  time.Duration
}

// RunStats summarises one reconcile pass.
type RunStats struct {
	Scanned  int
	Resolved int
	Failed   int
}

// Reconciler retries removal of objects recorded as cleanup intents.
type Reconciler struct {
	files   Attacher
	intents IntentStore
	config  ReconcilerConfig
	logger  zerolog.Logger

	cron     *cron.Cron
	running  sync.Mutex
	stopOnce sync.Once
}

// NewReconciler creates a Reconciler. Zero batch size, attempts or timeout
// fall back to defaults.
func NewReconciler(files Attacher, intents IntentStore, cfg ReconcilerConfig, logger zerolog.Logger) *Reconciler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Reconciler{
		files:   files,
		intents: intents,
		config:  cfg,
		logger:  logger,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

// RunOnce processes one batch of pending intents.
func (r *Reconciler) RunOnce(ctx context.Context) (RunStats, error) {
	r.running.Lock()
	defer r.running.Unlock()

	var stats RunStats
	pending, err := r.intents.Pending(ctx, r.config.BatchSize, r.config.MaxAttempts)
	if err != nil {
		return stats, fmt.Errorf("failed to load pending cleanup intents: %w", err)
	}
	stats.Scanned = len(pending)

	for _, intent := range pending {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		if err := r.files.Remove(ctx, intent.FileID); err != nil {
			stats.Failed++
			cleanupIntentsTotal.WithLabelValues("failed").Inc()
			r.logger.Warn().Err(err).
				Int64("intentID", intent.ID).
				Str("fileID", intent.FileID).
				Int("attempts", intent.Attempts+1).
				Msg("Cleanup attempt failed")
			if markErr := r.intents.MarkFailed(ctx, intent.ID, err); markErr != nil {
				r.logger.Error().Err(markErr).Int64("intentID", intent.ID).Msg("Failed to record cleanup attempt")
			}
			continue
		}

		if err := r.intents.Resolve(ctx, intent.ID); err != nil {
			// The object is gone; the next pass resolves the intent as a no-op.
			r.logger.Error().Err(err).Int64("intentID", intent.ID).Msg("Failed to resolve cleanup intent")
			continue
		}
		stats.Resolved++
		cleanupIntentsTotal.WithLabelValues("resolved").Inc()
	}

	if stats.Scanned > 0 {
		r.logger.Info().
			Int("scanned", stats.Scanned).
			Int("resolved", stats.Resolved).
			Int("failed", stats.Failed).
			Msg("Cleanup pass finished")
	}
	return stats, nil
}

// Start schedules RunOnce on the configured cron spec.
func (r *Reconciler) Start() error {
	if r.config.Schedule == "" {
		return fmt.Errorf("reconciler schedule is empty")
	}
	_, err := r.cron.AddFunc(r.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.RunTimeout)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("Cleanup pass failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconciler schedule %q: %w", r.config.Schedule, err)
	}
	r.cron.Start()
	r.logger.Info().Str("schedule", r.config.Schedule).Msg("Attachment reconciler started")
	return nil
}

// Stop waits for a running pass to finish. Safe to call more than once.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		<-r.cron.Stop().Done()
		r.logger.Info().Msg("Attachment reconciler stopped")
	})
}
