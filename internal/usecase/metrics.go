package usecase

import (
	"time"

	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/domain/match"
)

// Metrics receives operational signals from use cases.
type Metrics interface {
	ClockTick(result TickResult, elapsed time.Duration)
	MatchTransitioned(from, to match.Status, automatic bool)
	JobEnqueued(kind jobscheduler.Kind, ok bool)
	JobFinished(kind jobscheduler.Kind, status jobscheduler.DispatchStatus, attempts int, elapsed time.Duration)
	JobRetried(kind jobscheduler.Kind)
}

type noopMetrics struct{}

func (noopMetrics) ClockTick(TickResult, time.Duration) {}
func (noopMetrics) MatchTransitioned(match.Status, match.Status, bool) {}
func (noopMetrics) JobEnqueued(jobscheduler.Kind, bool) {}
func (noopMetrics) JobFinished(jobscheduler.Kind, jobscheduler.DispatchStatus, int, time.Duration) {}
func (noopMetrics) JobRetried(jobscheduler.Kind) {}

func NewNoopMetrics() Metrics {
	return noopMetrics{}
}
