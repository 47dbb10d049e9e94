package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/config"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:                     config.EnvDev,
		ServiceName:                "matchday-api",
		HTTPAddr:                   "127.0.0.1:0",
		ReadTimeout:                time.Second,
		WriteTimeout:               time.Second,
		CORSAllowedOrigins:         []string{"*"},
		StoreDriver:                config.StoreDriverMemory,
		SeedDemoData:               true,
		CatalogCacheTTL:            time.Minute,
		ClockEnabled:               true,
		ClockTickInterval:          time.Hour,
		ClockFirstHalfEnd:          45,
		ClockSecondHalfEnd:         90,
		ClockMaxConcurrency:        2,
		JobQueueDriver:             config.QueueDriverMemory,
		RecomputeWorkers:           2,
		RecomputeQueueSize:         16,
		RecomputeMaxRetries:        1,
		RecomputeRetryInitial:      time.Millisecond,
		RecomputeRetryMax:          time.Millisecond,
		AnubisBaseURL:              "http://127.0.0.1:1",
		AnubisIntrospectPath:       "/v1/auth/introspect",
		AnubisTimeout:              time.Second,
		IngestRateLimit:            5,
		IngestRateBurst:            5,
		MetricsEnabled:             true,
		UptraceRequestBodyMaxBytes: 1024,
	}
}

func serve(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestNew_MemoryStoreServesSeededData(t *testing.T) {
	application, err := New(context.Background(), testConfig(), logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, application.Start(ctx))

	code, _ := serve(t, application.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)

	code, body := serve(t, application.Handler(), "/v1/matches/idn-2025-md1-psj-psb")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"status":"scheduled"`)

	code, body = serve(t, application.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(body, "go_goroutines"))

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, application.Shutdown(shutdownCtx))
	assert.False(t, application.clock.Running())
}

func TestApp_SignalCancelDoesNotDropQueuedJobs(t *testing.T) {
	cfg := testConfig()
	cfg.ClockEnabled = false

	application, err := New(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	for i := range 5 {
		require.NoError(t, application.queue.Enqueue(context.Background(), jobscheduler.Job{
			ID:       fmt.Sprintf("job-%d", i),
			Kind:     jobscheduler.KindStandings,
			TargetID: "idn-liga-1-2025",
		}))
	}

	signalCtx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, application.Start(signalCtx))

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, application.Shutdown(shutdownCtx))
	assert.Zero(t, application.queue.Len())
}

func TestNew_MetricsDisabledHidesEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	cfg.ClockEnabled = false

	application, err := New(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Nil(t, application.clock)

	code, _ := serve(t, application.Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNew_RejectsUnknownQueueDriver(t *testing.T) {
	cfg := testConfig()
	cfg.JobQueueDriver = "kafka"

	_, err := New(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka")
}

func TestNew_QStashDriverSkipsLocalWorker(t *testing.T) {
	cfg := testConfig()
	cfg.JobQueueDriver = config.QueueDriverQStash
	cfg.QStashBaseURL = "http://127.0.0.1:1"
	cfg.QStashToken = "token"
	cfg.QStashTargetBaseURL = "https://api.matchday.example"
	cfg.InternalJobToken = "job-secret"

	application, err := New(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Nil(t, application.worker)
	assert.Nil(t, application.queue)
}

func TestNew_RequiresHTTPAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""

	_, err := New(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
}
