// Package emergent implements the generic metadata store on top of the
// Emergent graph SDK. Elements map to graph objects (type, key = qualified
// name, labels = classifications) and relationships map to graph relationships.
package emergent

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	sdk "github.com/emergent-company/emergent/apps/server-go/pkg/sdk"
	"golang.org/x/time/rate"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/store"
)

// contextKey is an unexported type for context keys in this package.
type contextKey struct{}

// tokenKey is the context key for the Emergent auth token.
var tokenKey = contextKey{}

// WithToken returns a context carrying the given Emergent auth token.
// The token is used by ClientFactory.StoreFor to create per-request SDK clients.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFrom extracts the Emergent auth token from the context.
// Returns empty string if no token is present.
func TokenFrom(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

// Options tunes retry and rate limiting behaviour.
type Options struct {
	ProjectID              string
	MaxRetries             int     // 0 = no retries, -1 = infinite
	LongOutageIntervalMins int     // After many failures, switch to this interval in minutes
	LongOutageThreshold    int     // Consecutive failures before switching to long outage mode
	RequestsPerSecond      float64 // 0 = unlimited
}

// DefaultOptions are used by CLI tools that do not read configuration.
func DefaultOptions() Options {
	return Options{
		MaxRetries:             5,
		LongOutageIntervalMins: 5,
		LongOutageThreshold:    20,
	}
}

// Client is a store.Store backed by one Emergent SDK client.
type Client struct {
	sdk     *sdk.Client
	logger  *slog.Logger
	limiter *rate.Limiter
	retry   retryPolicy
}

var _ store.Store = (*Client)(nil)

// ClientFactory creates per-request Emergent clients. It holds the shared
// configuration (server URL) and a shared http.Client for connection pooling.
// Each request gets its own SDK client with the auth token from context.
//
// In HTTP mode, an optional adminToken is the fallback for server-side
// operations (like the anchor sweep) that don't have a user token in context.
type ClientFactory struct {
	serverURL  string
	adminToken string
	httpClient *http.Client
	logger     *slog.Logger
	opts       Options
	limiter    *rate.Limiter
}

var _ store.Provider = (*ClientFactory)(nil)

// NewClientFactory creates a factory for per-request Emergent clients.
// The shared http.Client reuses TCP connections across requests and the
// rate limiter is shared by every client the factory hands out.
func NewClientFactory(serverURL, adminToken string, opts Options, logger *slog.Logger) *ClientFactory {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &ClientFactory{
		serverURL:  serverURL,
		adminToken: adminToken,
		httpClient: &http.Client{
			Timeout:   5 * time.Minute,
			Transport: transport,
		},
		logger:  logger,
		opts:    opts,
		limiter: newLimiter(opts.RequestsPerSecond),
	}
}

// StoreFor creates an Emergent client using the auth token from the context.
// If no token is in context and adminToken is configured, uses the admin token.
// Each call creates a lightweight SDK client that shares the factory's
// connection pool.
func (f *ClientFactory) StoreFor(ctx context.Context) (store.Store, error) {
	token := TokenFrom(ctx)
	if token == "" {
		if f.adminToken == "" {
			return nil, faults.New(faults.NotAuthorized, "no emergent token in request context and no admin token configured", nil)
		}
		token = f.adminToken
		f.logger.Debug("using admin token for server-side operation")
	}

	sdkClient, err := sdk.New(sdk.Config{
		ServerURL: f.serverURL,
		Auth: sdk.AuthConfig{
			Mode:   "apikey",
			APIKey: token,
		},
		ProjectID:  f.opts.ProjectID,
		HTTPClient: f.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("creating SDK client: %w", err)
	}
	return newClient(sdkClient, f.opts, f.limiter, f.logger), nil
}

// NewClient creates a Client with a fixed auth token. Used by the CLI and
// the stdio server, which operate with a single known token.
func NewClient(serverURL, token string, opts Options, logger *slog.Logger) (*Client, error) {
	sdkClient, err := sdk.New(sdk.Config{
		ServerURL: serverURL,
		Auth: sdk.AuthConfig{
			Mode:   "apikey",
			APIKey: token,
		},
		ProjectID: opts.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating SDK client: %w", err)
	}
	return newClient(sdkClient, opts, newLimiter(opts.RequestsPerSecond), logger), nil
}

func newClient(sdkClient *sdk.Client, opts Options, limiter *rate.Limiter, logger *slog.Logger) *Client {
	return &Client{
		sdk:     sdkClient,
		logger:  logger,
		limiter: limiter,
		retry:   newRetryPolicy(opts),
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// isNotFound recognises the SDK's rendering of a 404.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}

// classify turns a failed SDK call into a typed fault.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return faults.New(faults.NotFound, operation, err)
	}
	return faults.Server(operation, err)
}
