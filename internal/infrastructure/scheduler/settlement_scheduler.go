package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appbilling "github.com/quickcart/backend/internal/application/billing"
)

// ErrSchedulerNotRunning is returned when a manual trigger hits a stopped scheduler
var ErrSchedulerNotRunning = errors.New("scheduler is not running")

// SettlementRunner is the sweep the scheduler drives on each tick
type SettlementRunner interface {
	SettleDue(ctx context.Context) (*appbilling.SettlementResult, error)
}

// SettlementSchedulerConfig holds configuration for the refund settlement
// scheduler. It ships disabled; the poller is the fallback for the missing
// gateway refund webhook and only one instance should run it.
type SettlementSchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	RunTimeout time.Duration
}

// DefaultSettlementSchedulerConfig returns the default configuration
func DefaultSettlementSchedulerConfig() SettlementSchedulerConfig {
	return SettlementSchedulerConfig{
		Enabled:    false,
		Interval:   2 * time.Second,
		RunTimeout: time.Minute,
	}
}

// RefundSettlementScheduler periodically sweeps refunds stuck in PROCESSING
type RefundSettlementScheduler struct {
	runner    SettlementRunner
	logger    *zap.Logger
	config    SettlementSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRefundSettlementScheduler creates a new scheduler
func NewRefundSettlementScheduler(runner SettlementRunner, logger *zap.Logger, config SettlementSchedulerConfig) *RefundSettlementScheduler {
	return &RefundSettlementScheduler{
		runner: runner,
		logger: logger,
		config: config,
	}
}

// Start launches the sweep loop. A disabled scheduler starts as a no-op.
func (s *RefundSettlementScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Refund settlement scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Refund settlement scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *RefundSettlementScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Refund settlement scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Refund settlement scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the sweep loop is active
func (s *RefundSettlementScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerImmediateSweep runs one sweep outside the schedule
func (s *RefundSettlementScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.sweep(ctx)
	}()
	return nil
}

func (s *RefundSettlementScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Settlement sweep loop stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RefundSettlementScheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.runner.SettleDue(sweepCtx)
	if err != nil {
		s.logger.Error("Refund settlement sweep failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	if result.Due > 0 {
		s.logger.Info("Refund settlement sweep finished",
			zap.Duration("duration", time.Since(start)),
			zap.Int("due", result.Due),
			zap.Int("settled", result.Settled),
			zap.Int("gateway_failures", result.GatewayFailures),
			zap.Int("skipped", result.Skipped),
		)
	}
}
