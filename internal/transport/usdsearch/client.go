// Package usdsearch is the HTTP transport for the USD Search API.
package usdsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/usdsearch/internal/domain"
	"github.com/kailas-cloud/usdsearch/internal/domain/search/query"
	"github.com/kailas-cloud/usdsearch/internal/domain/search/record"
	"github.com/kailas-cloud/usdsearch/internal/metrics"
	"github.com/kailas-cloud/usdsearch/internal/normalize"
)

// Mode selects how the request goes over the wire.
type Mode string

const (
	// ModeAPI posts a JSON body with credentials attached.
	ModeAPI Mode = "api"
	// ModeURL issues an unauthenticated GET with query parameters.
	ModeURL Mode = "url"
)

// CredentialResolver supplies the authorization value for a target URL.
type CredentialResolver interface {
	Resolve(ctx context.Context, targetURL string) (domain.Credential, error)
}

// Client issues search requests and returns normalized records.
type Client struct {
	baseURL string
	mode    Mode
	http    *http.Client
	creds   CredentialResolver
	logger  *zap.Logger
}

// Config holds the search client settings.
type Config struct {
	BaseURL     string
	Mode        Mode
	HTTPClient  *http.Client
	Credentials CredentialResolver
	Logger      *zap.Logger
}

// NewClient creates a search API client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAPI
	}
	return &Client{
		baseURL: cfg.BaseURL,
		mode:    mode,
		http:    httpClient,
		creds:   cfg.Credentials,
		logger:  logger,
	}
}

// apiPayload is the JSON body for API-mode requests.
type apiPayload struct {
	Description          string  `json:"description"`
	Limit                int     `json:"limit"`
	CutoffThreshold      float64 `json:"cutoff_threshold"`
	ReturnImages         bool    `json:"return_images"`
	ReturnMetadata       bool    `json:"return_metadata"`
	ReturnRootPrims      bool    `json:"return_root_prims"`
	ReturnPredictions    bool    `json:"return_predictions"`
	FileExtensionInclude string  `json:"file_extension_include"`
	SearchInScene        string  `json:"search_in_scene,omitempty"`
}

// Send issues the search request. An empty description short-circuits to an
// empty result without touching the network. Non-success responses come back
// as *domain.APIError values, never as unhandled faults.
func (c *Client) Send(ctx context.Context, q query.Query) ([]record.Record, error) {
	if q.IsEmpty() {
		return nil, nil
	}

	start := time.Now()
	recs, err := c.send(ctx, q)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(c.mode), status).Inc()
	metrics.SearchRequestDuration.WithLabelValues(string(c.mode)).Observe(time.Since(start).Seconds())
	return recs, err
}

func (c *Client) send(ctx context.Context, q query.Query) ([]record.Record, error) {
	var (
		resp *http.Response
		err  error
	)
	switch c.mode {
	case ModeURL:
		resp, err = c.getByURL(ctx, q)
	default:
		resp, err = c.postByAPI(ctx, q)
	}
	if err != nil {
		// Cancellation propagates as-is so the controller can tell
		// supersession apart from transport failure.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, domain.NewAPIError(0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewAPIError(resp.StatusCode, "read response body: "+err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewAPIError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raws []normalize.Raw
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("%w: expected JSON array: %w", domain.ErrMalformedResponse, err)
	}

	return normalize.Records(raws), nil
}

// postByAPI sends the authenticated JSON POST request.
func (c *Client) postByAPI(ctx context.Context, q query.Query) (*http.Response, error) {
	payload := apiPayload{
		Description:          q.Description(),
		Limit:                q.Limit(),
		CutoffThreshold:      q.CutoffThreshold(),
		ReturnImages:         q.ReturnImages(),
		ReturnMetadata:       q.ReturnMetadata(),
		ReturnRootPrims:      q.ReturnRootPrims(),
		ReturnPredictions:    q.ReturnPredictions(),
		FileExtensionInclude: q.FileExtensionInclude(),
		SearchInScene:        q.SceneURL(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	c.authorize(ctx, req)

	c.logger.Debug("sending search request",
		zap.String("url", c.baseURL),
		zap.String("description", q.Description()),
		zap.Int("limit", q.Limit()),
	)
	return c.http.Do(req)
}

// authorize resolves and attaches the credential. Resolution is per request;
// caching lives in the resolver. On failure the request proceeds without an
// authorization header and the server gets to reject it.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.creds == nil {
		return
	}
	cred, err := c.creds.Resolve(ctx, c.baseURL)
	if err != nil {
		c.logger.Warn("credential resolution failed, sending unauthenticated", zap.Error(err))
		return
	}
	switch cred.Kind() {
	case domain.CredentialAPIKey:
		req.Header.Set("x-api-key", cred.Value())
	case domain.CredentialBearer:
		req.Header.Set("Authorization", "Bearer "+cred.Value())
	}
}

// getByURL sends the unauthenticated query-string request. All five
// parameters are always present, with defaults substituted when absent.
func (c *Client) getByURL(ctx context.Context, q query.Query) (*http.Response, error) {
	params := url.Values{}
	params.Set("description", q.Description())
	params.Set("return_metadata", strconv.FormatBool(q.ReturnMetadata()))
	params.Set("limit", strconv.Itoa(q.Limit()))
	params.Set("file_extension_include", q.FileExtensionInclude())
	params.Set("return_images", strconv.FormatBool(q.ReturnImages()))

	target := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("sending search request", zap.String("url", target))
	return c.http.Do(req)
}
