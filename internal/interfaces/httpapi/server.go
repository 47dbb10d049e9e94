package httpapi

import (
	"net/http"

	"github.com/riskibarqy/matchday/internal/platform/logging"
)

type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
	// IngestLimiter throttles the ingestion routes per client. Nil disables it.
	IngestLimiter *ClientRateLimiter
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Trace   TraceOptions
}

func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	logger *logging.Logger,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("http")

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg)
	registerPublicMatchRoutes(mux, handler)
	registerOperatorRoutes(mux, handler, verifier)
	registerIngestionRoutes(mux, handler, verifier, cfg.IngestLimiter)
	registerInternalJobRoutes(mux, handler, verifier, cfg.InternalJobToken)

	return RequestTracing(cfg.Trace, RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
