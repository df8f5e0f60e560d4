package usdsearch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kailas-cloud/usdsearch/internal/credential"
	"github.com/kailas-cloud/usdsearch/internal/domain/search/query"
	"github.com/kailas-cloud/usdsearch/internal/imaging"
	"github.com/kailas-cloud/usdsearch/internal/transport/nucleus"
	transport "github.com/kailas-cloud/usdsearch/internal/transport/usdsearch"
	controlleruc "github.com/kailas-cloud/usdsearch/internal/usecase/controller"
	searchuc "github.com/kailas-cloud/usdsearch/internal/usecase/search"
)

// TokenIssuer mints a bearer token for a Nucleus server.
type TokenIssuer interface {
	IssueToken(ctx context.Context, server string) (token string, expiresAt time.Time, err error)
}

// SearchResult is a single displayable search hit.
type SearchResult struct {
	ImagePath string // decoded thumbnail JPEG on disk
	AssetURL  string // public asset URL
	AssetName string // last path segment of AssetURL
}

// Client is the usdsearch SDK entry point.
type Client struct {
	controller *controlleruc.Controller
	svc        *searchuc.Service
	codec      *imaging.Codec
	limit      int
	cutoff     float64
	fileExt    string
	obs        *observer
}

// New creates a client. The scratch directory is created if missing and
// cleared of leftover thumbnails from previous runs.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		mode:                 ModeAPI,
		limit:                query.DefaultLimit,
		cutoffThreshold:      query.DefaultCutoffThreshold,
		fileExtensionInclude: query.DefaultFileExtensions,
		scratchDir:           filepath.Join(os.TempDir(), "usdsearch", "captures"),
		assetDir:             filepath.Join(os.TempDir(), "usdsearch", "assets"),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.hostURL == "" {
		return nil, errors.New("usdsearch: host URL required (use WithHostURL)")
	}

	codec, err := imaging.NewCodec(cfg.scratchDir, cfg.assetDir, nil)
	if err != nil {
		return nil, fmt.Errorf("usdsearch: create image codec: %w", err)
	}

	apiKey := cfg.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("NVIDIA_API_KEY")
	}
	var issuer credential.TokenIssuer
	if cfg.issuer != nil {
		issuer = &issuerAdapter{inner: cfg.issuer}
	} else {
		issuer = nucleus.NewIssuer(cfg.httpClient, nil)
	}
	resolver := credential.NewResolver(credential.Config{
		APIKey:               apiKey,
		RequireAuthorization: cfg.requireAuth,
		NucleusServer:        cfg.nucleusServer,
	}, issuer, nil)

	sender := transport.NewClient(&transport.Config{
		BaseURL:     cfg.hostURL,
		Mode:        transport.Mode(cfg.mode),
		HTTPClient:  cfg.httpClient,
		Credentials: resolver,
	})

	svc := searchuc.New(sender, codec, nil)
	ctrl := controlleruc.New(svc, codec, nil, controlleruc.Options{
		Limit:                cfg.limit,
		CutoffThreshold:      cfg.cutoffThreshold,
		FileExtensionInclude: cfg.fileExtensionInclude,
		OnUpdate:             cfg.onUpdate,
	})

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		controller: ctrl,
		svc:        svc,
		codec:      codec,
		limit:      cfg.limit,
		cutoff:     cfg.cutoffThreshold,
		fileExt:    cfg.fileExtensionInclude,
		obs:        obs,
	}, nil
}

// Submit starts an asynchronous search. Duplicate submissions of the last
// completed (description, sceneURL) pair are suppressed; a newer submission
// supersedes the one in flight. Results arrive via Results after the
// OnUpdate callback fires.
func (c *Client) Submit(description, sceneURL string) {
	c.controller.Submit(description, sceneURL)
}

// Reset cancels any in-flight search and returns to the idle state.
func (c *Client) Reset() {
	c.controller.Reset()
}

// Results returns a snapshot of the current result list.
func (c *Client) Results() []SearchResult {
	models := c.controller.Results()
	out := make([]SearchResult, 0, len(models))
	for _, m := range models {
		out = append(out, SearchResult{
			ImagePath: m.ImagePath(),
			AssetURL:  m.AssetURL(),
			AssetName: m.AssetName(),
		})
	}
	return out
}

// Status returns the current status message. Empty means the result list is
// authoritative.
func (c *Client) Status() string {
	return c.controller.Status()
}

// Search runs one query synchronously, bypassing the controller state.
// For callers that manage their own sessions (e.g. the HTTP daemon).
func (c *Client) Search(ctx context.Context, description, sceneURL string) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	q, err := query.New(description, sceneURL, c.limit)
	if err != nil {
		return nil, fmt.Errorf("usdsearch: %w", err)
	}
	q = q.WithCutoffThreshold(c.cutoff).WithFileExtensionInclude(c.fileExt)

	models, err := c.svc.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("usdsearch: %w", err)
	}
	out := make([]SearchResult, 0, len(models))
	for _, m := range models {
		out = append(out, SearchResult{
			ImagePath: m.ImagePath(),
			AssetURL:  m.AssetURL(),
			AssetName: m.AssetName(),
		})
	}
	return out, nil
}

// issuerAdapter wraps the public TokenIssuer to satisfy the internal interface.
type issuerAdapter struct {
	inner TokenIssuer
}

func (a *issuerAdapter) IssueToken(ctx context.Context, server string) (string, time.Time, error) {
	token, expiresAt, err := a.inner.IssueToken(ctx, server)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return token, expiresAt, nil
}
