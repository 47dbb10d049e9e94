package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

var ErrClockRunning = errors.New("clock already running")

// Ticker is the part of time.Ticker the clock needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(interval time.Duration) Ticker

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop() { s.t.Stop() }

func NewSystemTicker(interval time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(interval)}
}

type ClockConfig struct {
	Interval       time.Duration
	Rules          match.ClockRules
	MaxConcurrency int
}

type TickResult struct {
	Processed    int
	Transitioned int
	Failed       int
}

type ClockOption func(*Clock)

func WithTickerFactory(factory TickerFactory) ClockOption {
	return func(c *Clock) {
		if factory != nil {
			c.newTicker = factory
		}
	}
}

func WithClockNow(now func() time.Time) ClockOption {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

// Clock advances every in-play match once per interval. Each match is
// processed independently; one failing match never stops the others.
type Clock struct {
	matches   *MatchService
	matchRepo match.Repository
	cfg       ClockConfig
	newTicker TickerFactory
	now       func() time.Time
	metrics   Metrics
	logger    *logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

func NewClock(matches *MatchService, cfg ClockConfig, logger *logging.Logger, opts ...ClockOption) *Clock {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Rules.FirstHalfEnd <= 0 || cfg.Rules.SecondHalfEnd <= 0 {
		cfg.Rules = match.DefaultClockRules()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}

	c := &Clock{
		matches:   matches,
		matchRepo: matches.matchRepo,
		cfg:       cfg,
		newTicker: NewSystemTicker,
		now:       time.Now,
		metrics:   matches.metrics,
		logger:    logger.With("component", "match_clock"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the tick loop in the background. It returns
// ErrClockRunning when called twice without Stop.
func (c *Clock) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		return ErrClockRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	ticker := c.newTicker(c.cfg.Interval)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running.Store(true)

	go c.loop(runCtx, ticker, c.done)

	c.logger.Info("match clock started",
		"interval", c.cfg.Interval,
		"first_half_end", c.cfg.Rules.FirstHalfEnd,
		"second_half_end", c.cfg.Rules.SecondHalfEnd,
	)
	return nil
}

// Stop ends the loop and waits for an in-flight tick to finish.
func (c *Clock) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.running.Store(false)
	c.logger.Info("match clock stopped")
}

func (c *Clock) Running() bool {
	return c.running.Load()
}

func (c *Clock) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.Tick(ctx)
		}
	}
}

// Tick runs one clock step over all live and half-time matches.
func (c *Clock) Tick(ctx context.Context) TickResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.Clock.Tick")
	defer span.End()

	started := time.Now()
	at := c.now().UTC()

	items, err := c.matchRepo.ListByStatus(ctx, match.StatusLive, match.StatusHalfTime)
	if err != nil {
		c.logger.ErrorContext(ctx, "list in-play matches failed", "error", err)
		result := TickResult{Failed: 1}
		c.metrics.ClockTick(result, time.Since(started))
		return result
	}

	var processed, transitioned, failed atomic.Int64
	workers := pool.New().WithMaxGoroutines(c.cfg.MaxConcurrency)
	for _, item := range items {
		matchID := item.ID
		workers.Go(func() {
			var catcher panics.Catcher
			var moved bool
			var stepErr error
			catcher.Try(func() {
				moved, stepErr = c.matches.advanceClock(ctx, matchID, c.cfg.Rules, at)
			})
			if recovered := catcher.Recovered(); recovered != nil {
				stepErr = fmt.Errorf("clock step panicked: %w", recovered.AsError())
			}

			processed.Add(1)
			if stepErr != nil {
				failed.Add(1)
				c.logger.ErrorContext(ctx, "clock step failed", "match_id", matchID, "error", stepErr)
				return
			}
			if moved {
				transitioned.Add(1)
			}
		})
	}
	workers.Wait()

	result := TickResult{
		Processed:    int(processed.Load()),
		Transitioned: int(transitioned.Load()),
		Failed:       int(failed.Load()),
	}
	c.metrics.ClockTick(result, time.Since(started))
	if result.Processed > 0 {
		c.logger.DebugContext(ctx, "clock tick finished",
			"processed", result.Processed,
			"transitioned", result.Transitioned,
			"failed", result.Failed,
		)
	}
	return result
}
