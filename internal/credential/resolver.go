// Package credential resolves the authorization value attached to search requests.
package credential

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/kailas-cloud/usdsearch/internal/domain"
	"github.com/kailas-cloud/usdsearch/internal/metrics"
)

// publicInferenceHost is the hosted inference endpoint. Requests to it are
// authorized with the static API key only; Nucleus tokens apply to every
// other ("trusted") instance.
const publicInferenceHost = "ai.api.nvidia.com"

// tokenTTL bounds how long an issued bearer token is reused.
const tokenTTL = 900 * time.Second

// TokenIssuer mints a bearer token for a Nucleus server.
type TokenIssuer interface {
	IssueToken(ctx context.Context, server string) (token string, expiresAt time.Time, err error)
}

// Config holds the credential sources.
type Config struct {
	APIKey               string // static key; wins over token authorization
	RequireAuthorization bool   // fetch Nucleus tokens for trusted instances
	NucleusServer        string // token issuer identity, also the cache key
}

// Resolver resolves credentials per request, caching issued tokens per issuer.
type Resolver struct {
	cfg    Config
	issuer TokenIssuer
	logger *zap.Logger

	cache *gocache.Cache // issuer -> domain.Credential

	mu      sync.Mutex
	pending map[string]*refreshCall
}

// refreshCall coalesces concurrent refreshes for one issuer: late arrivals
// wait on done and share the outcome instead of issuing their own fetch.
type refreshCall struct {
	done chan struct{}
	cred domain.Credential
	err  error
}

// NewResolver creates a credential resolver.
func NewResolver(cfg Config, issuer TokenIssuer, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cfg:     cfg,
		issuer:  issuer,
		logger:  logger,
		cache:   gocache.New(tokenTTL, 2*tokenTTL),
		pending: make(map[string]*refreshCall),
	}
}

// Resolve returns the credential for a request to targetURL.
// A zero credential with nil error means the request goes out unauthenticated.
func (r *Resolver) Resolve(ctx context.Context, targetURL string) (domain.Credential, error) {
	if r.cfg.APIKey != "" {
		return domain.NewAPIKey(r.cfg.APIKey), nil
	}

	if hostOf(targetURL) == publicInferenceHost {
		return domain.Credential{}, fmt.Errorf(
			"%w: an API key is required for %s", domain.ErrMissingCredential, publicInferenceHost,
		)
	}

	if !r.cfg.RequireAuthorization {
		return domain.Credential{}, nil
	}
	return r.token(ctx, r.cfg.NucleusServer)
}

// token returns a cached bearer token for the issuer, refreshing at most once
// per TTL window across concurrent callers.
func (r *Resolver) token(ctx context.Context, server string) (domain.Credential, error) {
	if v, ok := r.cache.Get(server); ok {
		return v.(domain.Credential), nil
	}

	r.mu.Lock()
	// Re-check under the lock: a refresh may have landed since the miss.
	if v, ok := r.cache.Get(server); ok {
		r.mu.Unlock()
		return v.(domain.Credential), nil
	}
	if call, ok := r.pending[server]; ok {
		r.mu.Unlock()
		select {
		case <-call.done:
			return call.cred, call.err
		case <-ctx.Done():
			return domain.Credential{}, ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	r.pending[server] = call
	r.mu.Unlock()

	token, expiresAt, err := r.issuer.IssueToken(ctx, server)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		call.err = fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, err)
	} else {
		metrics.TokenRefreshesTotal.WithLabelValues("ok").Inc()
		call.cred = domain.NewBearer(token, expiresAt)
		r.cache.Set(server, call.cred, gocache.DefaultExpiration)
		r.logger.Debug("bearer token refreshed", zap.String("server", server))
	}

	r.mu.Lock()
	delete(r.pending, server)
	r.mu.Unlock()
	close(call.done)

	return call.cred, call.err
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
