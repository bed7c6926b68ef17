package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	alertDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/alert"
	"github.com/robfig/cron/v3"
)

const DefaultRetryBatch = 100

type RetryStore interface {
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*alertDatamodel.Log, error)
}

type RetryQueue interface {
	Enqueue(job RetryJob) (bool, error)
}

// DigestSource renders the daily summary text.
type DigestSource interface {
	Digest(ctx context.Context) (string, error)
}

type SchedulerConfig struct {
	RetrySpec    string
	DigestSpec   string
	MaxAttempts  int
	BatchSize    int
	DigestChatID int64
	JobTimeout   time.Duration
}

type Scheduler struct {
	cron       *cron.Cron
	config     SchedulerConfig
	store      RetryStore
	queue      RetryQueue
	dispatcher MessageDispatcher
	digest     DigestSource
	logger     *slog.Logger
}

// NewScheduler registers the retry job and, when a digest source and chat
// are given, the daily digest job.
func NewScheduler(config SchedulerConfig, store RetryStore, queue RetryQueue, dispatcher MessageDispatcher, digest DigestSource, logger *slog.Logger) (*Scheduler, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultRetryBatch
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}

	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		config:     config,
		store:      store,
		queue:      queue,
		dispatcher: dispatcher,
		digest:     digest,
		logger:     logger,
	}

	if config.RetrySpec != "" {
		if _, err := s.cron.AddFunc(config.RetrySpec, s.runRetries); err != nil {
			return nil, fmt.Errorf("invalid retry schedule %q: %w", config.RetrySpec, err)
		}
	}
	if config.DigestSpec != "" && digest != nil && config.DigestChatID != 0 {
		if _, err := s.cron.AddFunc(config.DigestSpec, s.runDigest); err != nil {
			return nil, fmt.Errorf("invalid digest schedule %q: %w", config.DigestSpec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("alert scheduler started",
		"retry_schedule", s.config.RetrySpec,
		"digest_schedule", s.config.DigestSpec,
		"jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs or until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("alert scheduler stop timed out")
	}
	s.logger.Info("alert scheduler stopped")
}

func (s *Scheduler) runRetries() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()
	if _, err := s.EnqueueRetries(ctx); err != nil {
		s.logger.Error("alert retry sweep failed", "error", err)
	}
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()
	if err := s.SendDigest(ctx); err != nil {
		s.logger.Error("daily digest failed", "error", err)
	}
}

// EnqueueRetries queues failed alerts that still have attempts left and
// returns how many were queued. A full queue ends the sweep early; the
// rest are picked up next time.
func (s *Scheduler) EnqueueRetries(ctx context.Context) (int, error) {
	rows, err := s.store.ListRetryable(ctx, s.config.MaxAttempts, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list retryable alerts: %w", err)
	}

	queued := 0
	for i, row := range rows {
		ok, err := s.queue.Enqueue(RetryJob{LogID: row.ID})
		if err != nil {
			s.logger.Warn("alert retry sweep stopped early", "queued", queued, "remaining", len(rows)-i, "error", err)
			return queued, nil
		}
		if ok {
			queued++
		}
	}
	if queued > 0 {
		s.logger.Info("alert retries queued", "count", queued)
	}
	return queued, nil
}

func (s *Scheduler) SendDigest(ctx context.Context) error {
	if s.digest == nil || s.config.DigestChatID == 0 {
		return ErrSenderUnavailable
	}
	text, err := s.digest.Digest(ctx)
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	result := s.dispatcher.Dispatch(ctx, Message{
		Subject:    "POS Helpdesk daily summary",
		Body:       text,
		Recipients: []Recipient{TelegramRecipient(s.config.DigestChatID)},
	})
	return result.Err()
}
