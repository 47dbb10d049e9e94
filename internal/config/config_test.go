package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("unexpected default store driver: %q", cfg.StoreDriver)
	}
	if cfg.JobQueueDriver != QueueDriverMemory {
		t.Fatalf("unexpected default queue driver: %q", cfg.JobQueueDriver)
	}
	if cfg.ClockFirstHalfEnd != 45 || cfg.ClockSecondHalfEnd != 90 {
		t.Fatalf("unexpected clock thresholds: %d/%d", cfg.ClockFirstHalfEnd, cfg.ClockSecondHalfEnd)
	}
	if cfg.ClockTickInterval != time.Minute {
		t.Fatalf("unexpected clock tick interval: %s", cfg.ClockTickInterval)
	}
	if cfg.RecomputeMaxRetries != 5 {
		t.Fatalf("unexpected recompute max retries: %d", cfg.RecomputeMaxRetries)
	}
	if !cfg.SeedDemoData {
		t.Fatalf("expected demo data seeded in dev by default")
	}
}

func TestLoad_ProdDoesNotSeedByDefault(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("SEED_DEMO_DATA", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SeedDemoData {
		t.Fatalf("expected SeedDemoData=false in prod by default")
	}
}

func TestLoad_InvalidDrivers(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mysql")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORE_DRIVER")
		}
	})

	t.Run("queue driver", func(t *testing.T) {
		t.Setenv("JOB_QUEUE_DRIVER", "kafka")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown JOB_QUEUE_DRIVER")
		}
	})
}

func TestLoad_ClockThresholdsMustIncrease(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CLOCK_FIRST_HALF_END", "50")
	t.Setenv("CLOCK_SECOND_HALF_END", "50")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when second half end is not after first half end")
	}
}

func TestLoad_ClockConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CLOCK_FIRST_HALF_END", "50")
	t.Setenv("CLOCK_SECOND_HALF_END", "95")
	t.Setenv("CLOCK_TICK_INTERVAL", "250ms")
	t.Setenv("CLOCK_MAX_CONCURRENCY", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ClockFirstHalfEnd != 50 || cfg.ClockSecondHalfEnd != 95 {
		t.Fatalf("unexpected clock thresholds: %d/%d", cfg.ClockFirstHalfEnd, cfg.ClockSecondHalfEnd)
	}
	if cfg.ClockTickInterval != 250*time.Millisecond {
		t.Fatalf("unexpected tick interval: %s", cfg.ClockTickInterval)
	}
	if cfg.ClockMaxConcurrency != 3 {
		t.Fatalf("unexpected max concurrency: %d", cfg.ClockMaxConcurrency)
	}
}

func TestLoad_RecomputeRetryValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("negative retries", func(t *testing.T) {
		t.Setenv("RECOMPUTE_MAX_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative RECOMPUTE_MAX_RETRIES")
		}
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("RECOMPUTE_RETRY_INITIAL", "soon")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid RECOMPUTE_RETRY_INITIAL")
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_SERVICE_NAME", "matchday-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "matchday-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
	})
}

func TestLoad_DBBinaryParametersParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default false", func(t *testing.T) {
		t.Setenv("DB_BINARY_PARAMETERS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.DBBinaryParameters {
			t.Fatalf("expected DBBinaryParameters=false by default")
		}
	})

	t.Run("enabled", func(t *testing.T) {
		t.Setenv("DB_BINARY_PARAMETERS", "true")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBBinaryParameters {
			t.Fatalf("expected DBBinaryParameters=true")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_BINARY_PARAMETERS", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_BINARY_PARAMETERS")
		}
	})
}

func TestLoad_QStashConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("qstash requires token", func(t *testing.T) {
		t.Setenv("JOB_QUEUE_DRIVER", QueueDriverQStash)
		t.Setenv("QSTASH_TOKEN", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when JOB_QUEUE_DRIVER=qstash without QSTASH_TOKEN")
		}
	})

	t.Run("qstash requires internal job token", func(t *testing.T) {
		t.Setenv("JOB_QUEUE_DRIVER", QueueDriverQStash)
		t.Setenv("QSTASH_TOKEN", "token")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://matchday.example.com")
		t.Setenv("INTERNAL_JOB_TOKEN", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when JOB_QUEUE_DRIVER=qstash without INTERNAL_JOB_TOKEN")
		}
	})

	t.Run("qstash configured", func(t *testing.T) {
		t.Setenv("JOB_QUEUE_DRIVER", QueueDriverQStash)
		t.Setenv("QSTASH_TOKEN", "token")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://matchday.example.com")
		t.Setenv("INTERNAL_JOB_TOKEN", "internal")
		t.Setenv("QSTASH_CIRCUIT_FAILURE_COUNT", "7")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QStashRetries != 3 {
			t.Fatalf("unexpected default qstash retries: %d", cfg.QStashRetries)
		}
		if cfg.QStashCircuit.FailureThreshold != 7 {
			t.Fatalf("unexpected circuit failure threshold: %d", cfg.QStashCircuit.FailureThreshold)
		}
		if !cfg.QStashCircuit.Enabled {
			t.Fatalf("expected qstash circuit enabled by default")
		}
	})
}

func TestLoad_IngestRateLimit(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("INGEST_RATE_LIMIT", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-positive INGEST_RATE_LIMIT")
	}
}
