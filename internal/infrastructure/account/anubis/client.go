package anubis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday/internal/domain/user"
	"github.com/riskibarqy/matchday/internal/platform/cache"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/platform/resilience"
	"github.com/riskibarqy/matchday/internal/usecase"
)

var errAnubisTransient = crerr.New("anubis transient failure")

type Config struct {
	BaseURL         string
	IntrospectPath  string
	AdminKey        string
	Timeout         time.Duration
	CacheTTL        time.Duration
	CacheMaxEntries int
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client verifies bearer tokens against the Anubis introspection endpoint.
// Active principals are cached per token hash.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	cache         *cache.Store[user.Principal]
	breaker       *resilience.CircuitBreaker
	logger        *logging.Logger
}

func NewClient(httpClient *http.Client, cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger = logger.With("component", "anubis")

	var principals *cache.Store[user.Principal]
	if cfg.CacheTTL > 0 {
		principals = cache.NewStore[user.Principal](cfg.CacheTTL, cfg.CacheMaxEntries)
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		cache:         principals,
		breaker: resilience.NewCircuitBreaker("anubis", cfg.CircuitBreaker, func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "dependency", name, "from", from, "to", to)
		}),
		logger: logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}
	if c.introspectURL == "" {
		return user.Principal{}, fmt.Errorf("%w: anubis is not configured", usecase.ErrDependencyUnavailable)
	}

	load := func(ctx context.Context) (user.Principal, error) {
		var out user.Principal
		err := c.breaker.Execute(func() error {
			var err error
			out, err = c.introspect(ctx, token)
			return err
		}, isCircuitFailure)
		return out, err
	}

	var (
		principal user.Principal
		err       error
	)
	if c.cache != nil {
		principal, err = c.cache.GetOrLoad(ctx, hashToken(token), load)
	} else {
		principal, err = load(ctx)
	}
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) || crerr.Is(err, errAnubisTransient) {
			return user.Principal{}, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return user.Principal{}, err
	}
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: request introspection: %v", errAnubisTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		// Anubis rejected our admin key, not the caller's token.
		c.logger.ErrorContext(ctx, "anubis rejected admin key")
		return user.Principal{}, fmt.Errorf("%w: anubis rejected admin key", usecase.ErrDependencyUnavailable)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return user.Principal{}, fmt.Errorf("%w: introspection status=%d", errAnubisTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("anubis introspection failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: read introspect response: %v", errAnubisTransient, err)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, crerr.Wrap(err, "unmarshal introspect response")
	}
	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, crerr.New("invalid introspect response: user_id is empty")
	}

	return user.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
		Role:   strongestRole(decoded.Roles),
	}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool     `json:"active"`
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}
