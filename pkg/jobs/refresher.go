package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RefreshFunc recomputes one named report so its cached snapshot stays warm.
type RefreshFunc func(ctx context.Context, report string) error

// RefresherConfig tunes the background refresh workers.
type RefresherConfig struct {
	Workers  int
	Interval time.Duration
	Reports  []string
	Logger   *zap.Logger
}

// Refresher periodically recomputes a fixed set of reports in the background.
// A report already waiting in the queue is not enqueued twice, so a slow
// recompute cannot pile up duplicate work behind itself.
type Refresher struct {
	refresh RefreshFunc

	workers  int
	interval time.Duration
	reports  []string
	logger   *zap.Logger

	queue   chan string
	pending map[string]bool

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRefresher builds a refresher around the given recompute function.
func NewRefresher(refresh RefreshFunc, cfg RefresherConfig) *Refresher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Refresher{
		refresh:  refresh,
		workers:  cfg.Workers,
		interval: cfg.Interval,
		reports:  cfg.Reports,
		logger:   cfg.Logger,
		queue:    make(chan string, len(cfg.Reports)+cfg.Workers*2),
		pending:  make(map[string]bool),
	}
}

// Start launches the workers and the periodic schedule. Safe to call once.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	r.wg.Add(1)
	go r.schedule()
	r.started = true
	r.logger.Info("report refresher started",
		zap.Int("workers", r.workers),
		zap.Duration("interval", r.interval),
		zap.Int("reports", len(r.reports)))
}

// Stop cancels the workers and waits for them to drain.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.logger.Info("report refresher stopped")
}

// Enqueue schedules a single report for refresh. Duplicate requests for a
// report that is still queued are dropped.
func (r *Refresher) Enqueue(report string) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return fmt.Errorf("refresher not started")
	}
	if r.pending[report] {
		r.mu.Unlock()
		return nil
	}
	r.pending[report] = true
	ctx := r.ctx
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		r.clearPending(report)
		return fmt.Errorf("refresher stopped: %w", ctx.Err())
	case r.queue <- report:
		return nil
	}
}

// EnqueueAll schedules every configured report, typically after a cache purge.
func (r *Refresher) EnqueueAll() {
	for _, report := range r.reports {
		if err := r.Enqueue(report); err != nil {
			r.logger.Warn("failed to enqueue report refresh", zap.String("report", report), zap.Error(err))
			return
		}
	}
}

func (r *Refresher) schedule() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.EnqueueAll()
		}
	}
}

func (r *Refresher) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case report := <-r.queue:
			r.clearPending(report)
			start := time.Now()
			if err := r.refresh(r.ctx, report); err != nil {
				r.logger.Warn("report refresh failed",
					zap.String("report", report),
					zap.Error(err))
				continue
			}
			r.logger.Debug("report refreshed",
				zap.String("report", report),
				zap.Duration("took", time.Since(start)))
		}
	}
}

func (r *Refresher) clearPending(report string) {
	r.mu.Lock()
	delete(r.pending, report)
	r.mu.Unlock()
}
