package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobHandlerFunc func(ctx context.Context, job jobscheduler.Job) error

func (f jobHandlerFunc) Handle(ctx context.Context, job jobscheduler.Job) error {
	return f(ctx, job)
}

type chanSource chan jobscheduler.Job

func (c chanSource) Jobs() <-chan jobscheduler.Job { return c }

type finishRecorder struct {
	noopMetrics
	mu       sync.Mutex
	finished map[jobscheduler.DispatchStatus]int
	retried  int
}

func (r *finishRecorder) JobFinished(_ jobscheduler.Kind, status jobscheduler.DispatchStatus, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished == nil {
		r.finished = make(map[jobscheduler.DispatchStatus]int)
	}
	r.finished[status]++
}

func (r *finishRecorder) JobRetried(jobscheduler.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retried++
}

func newTestWorker(handler JobHandler, metrics Metrics) (*RecomputeWorker, *memory.JobDispatchRepository) {
	dispatch := memory.NewJobDispatchRepository(memory.NewStore())
	worker := NewRecomputeWorker(handler, dispatch, RecomputeWorkerConfig{
		Workers:         2,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}, metrics, logging.NewNop())
	return worker, dispatch
}

func TestRecomputeWorker_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	metrics := &finishRecorder{}
	worker, dispatch := newTestWorker(jobHandlerFunc(func(_ context.Context, job jobscheduler.Job) error {
		if calls.Add(1) == 1 {
			return errFlaky
		}
		assert.Equal(t, 2, job.Attempt)
		return nil
	}), metrics)

	err := worker.Process(context.Background(), jobscheduler.Job{ID: "job-1", Kind: jobscheduler.KindStats, TargetID: seededMatchID})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, metrics.retried)
	assert.Equal(t, 1, metrics.finished[jobscheduler.StatusCompleted])

	completed, err := dispatch.ListByStatus(context.Background(), jobscheduler.StatusCompleted, 10)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 2, completed[0].Attempt)
}

func TestRecomputeWorker_ParksAfterRetriesRunOut(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	metrics := &finishRecorder{}
	worker, dispatch := newTestWorker(jobHandlerFunc(func(context.Context, jobscheduler.Job) error {
		calls.Add(1)
		return errFlaky
	}), metrics)

	err := worker.Process(context.Background(), jobscheduler.Job{ID: "job-2", Kind: jobscheduler.KindStandings, TargetID: liga1SeasonID})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, metrics.finished[jobscheduler.StatusParked])

	parked, err := dispatch.ListByStatus(context.Background(), jobscheduler.StatusParked, 10)
	require.NoError(t, err)
	require.Len(t, parked, 1)
	assert.Equal(t, "job-2", parked[0].JobID)
	assert.Equal(t, 3, parked[0].Attempt)
	assert.Contains(t, parked[0].ErrorMessage, "flaky dependency")
}

func TestRecomputeWorker_PermanentErrorSkipsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	worker, dispatch := newTestWorker(jobHandlerFunc(func(_ context.Context, job jobscheduler.Job) error {
		calls.Add(1)
		return fmt.Errorf("%w: match=%s", ErrNotFound, job.TargetID)
	}), nil)

	err := worker.Process(context.Background(), jobscheduler.Job{ID: "job-3", Kind: jobscheduler.KindStats, TargetID: "gone"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())

	parked, err := dispatch.ListByStatus(context.Background(), jobscheduler.StatusParked, 0)
	require.NoError(t, err)
	assert.Len(t, parked, 1)
}

func TestRecomputeWorker_RunDrainsSourceUntilClosed(t *testing.T) {
	t.Parallel()

	var handled sync.Map
	worker, dispatch := newTestWorker(jobHandlerFunc(func(_ context.Context, job jobscheduler.Job) error {
		handled.Store(job.ID, true)
		return nil
	}), nil)

	source := make(chanSource, 8)
	for i := range 5 {
		source <- jobscheduler.Job{ID: fmt.Sprintf("job-%d", i), Kind: jobscheduler.KindStats, TargetID: seededMatchID}
	}
	close(source)

	require.NoError(t, worker.Run(context.Background(), source))

	for i := range 5 {
		_, ok := handled.Load(fmt.Sprintf("job-%d", i))
		assert.True(t, ok, "job-%d not handled", i)
	}
	completed, err := dispatch.ListByStatus(context.Background(), jobscheduler.StatusCompleted, 0)
	require.NoError(t, err)
	assert.Len(t, completed, 5)
}

func TestRecomputeWorker_CancelledRunParksBacklog(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	metrics := &finishRecorder{}
	worker, dispatch := newTestWorker(jobHandlerFunc(func(context.Context, jobscheduler.Job) error {
		calls.Add(1)
		return nil
	}), metrics)

	source := make(chanSource, 8)
	for i := range 5 {
		source <- jobscheduler.Job{ID: fmt.Sprintf("job-%d", i), Kind: jobscheduler.KindStats, TargetID: seededMatchID}
	}
	close(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, worker.Run(ctx, source))

	assert.Zero(t, calls.Load())
	assert.Empty(t, source)
	assert.Equal(t, 5, metrics.finished[jobscheduler.StatusParked])

	parked, err := dispatch.ListByStatus(context.Background(), jobscheduler.StatusParked, 0)
	require.NoError(t, err)
	require.Len(t, parked, 5)
	for _, event := range parked {
		assert.Equal(t, ErrWorkerStopped.Error(), event.ErrorMessage)
		assert.Zero(t, event.Attempt)
	}
}

func TestRecomputeHandler_RoutesByKind(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	finishMatch(t, env, seededMatchID, 1, 0)

	indexed := make(chan string, 1)
	handler := NewRecomputeHandler(env.stats, env.standings, indexerFunc(func(_ context.Context, entity, entityID string) error {
		indexed <- entity + "/" + entityID
		return nil
	}))

	require.NoError(t, handler.Handle(ctx, jobscheduler.Job{Kind: jobscheduler.KindStats, TargetID: seededMatchID}))
	rows, err := env.stats.ListByMatch(ctx, seededMatchID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, handler.Handle(ctx, jobscheduler.Job{Kind: jobscheduler.KindStandings, TargetID: liga1SeasonID}))
	table, err := env.standings.ListBySeason(ctx, liga1SeasonID)
	require.NoError(t, err)
	assert.Len(t, table, 4)

	require.NoError(t, handler.Handle(ctx, jobscheduler.Job{
		Kind:     jobscheduler.KindSearchIndex,
		TargetID: "idn-persija",
		Payload:  map[string]string{"entity": "team"},
	}))
	assert.Equal(t, "team/idn-persija", <-indexed)

	err = handler.Handle(ctx, jobscheduler.Job{Kind: jobscheduler.KindSearchIndex, TargetID: "idn-persija"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	err = handler.Handle(ctx, jobscheduler.Job{Kind: "reindex-all", TargetID: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type indexerFunc func(ctx context.Context, entity, entityID string) error

func (f indexerFunc) Index(ctx context.Context, entity, entityID string) error {
	return f(ctx, entity, entityID)
}
