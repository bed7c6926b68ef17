package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/alert"
	"github.com/frahmantamala/pos-helpdesk/internal/core/events"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that run outside the HTTP server.`,
}

var alertWorkerCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Start the alert retry and digest worker",
	Long:  `Start the cron scheduler that re-sends failed alerts through a worker pool and posts the daily digest.`,
	Run: func(cmd *cobra.Command, args []string) {
		startAlertWorker()
	},
}

var (
	maxWorkers    int
	jobQueueSize  int
	retrySchedule string
	runOnce       bool
)

func startAlertWorker() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := newApp(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	lg := app.Logger
	app.Bus.Subscribe(events.EventTypeAlertFailed, func(ctx context.Context, event events.Event) error {
		lg.Warn("alert delivery failed", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	poolConfig := alert.PoolConfig{
		MaxWorkers:   getIntFlag(maxWorkers, cfg.Alert.MaxWorkers),
		JobQueueSize: getIntFlag(jobQueueSize, cfg.Alert.JobQueueSize),
	}
	pool := alert.NewRetryPool(poolConfig, app.Dispatcher, lg)

	scheduler, err := alert.NewScheduler(alert.SchedulerConfig{
		RetrySpec:    getStringFlag(retrySchedule, cfg.Alert.RetrySchedule),
		DigestSpec:   cfg.Alert.DigestSchedule,
		MaxAttempts:  cfg.Alert.MaxAttempts,
		DigestChatID: cfg.Telegram.DefaultChatID,
		JobTimeout:   cfg.Alert.Timeout,
	}, app.AlertRepo, pool, app.Dispatcher, app.Dashboard, lg)
	if err != nil {
		lg.Error("failed to build alert scheduler", "error", err)
		pool.Shutdown()
		return
	}

	lg.Info("starting alert worker",
		"max_workers", poolConfig.MaxWorkers,
		"job_queue_size", poolConfig.JobQueueSize,
		"max_attempts", cfg.Alert.MaxAttempts)

	if runOnce {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		queued, err := scheduler.EnqueueRetries(ctx)
		if err != nil {
			lg.Error("retry sweep failed", "error", err)
		}
		lg.Info("retry sweep queued", "count", queued)
		drainPool(ctx, pool)
		pool.Shutdown()
		return
	}

	scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("alert worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down alert worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(ctx)

	shutdownDone := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("alert worker pool shutdown complete", "pending", pool.Pending())
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
	if err := app.Bus.Wait(ctx); err != nil {
		lg.Warn("event handlers still running at shutdown", "error", err)
	}
}

// drainPool waits until every queued retry has finished or ctx ends.
func drainPool(ctx context.Context, pool *alert.Pool) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for pool.Pending() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	alertWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of retry workers (overrides config)")
	alertWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Retry job queue buffer size (overrides config)")
	alertWorkerCmd.Flags().StringVar(&retrySchedule, "retry-schedule", "", "Cron spec for the retry sweep (overrides config)")
	alertWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "Queue one retry sweep, drain the pool and exit")

	workerCmd.AddCommand(alertWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
