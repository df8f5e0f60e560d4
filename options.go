package usdsearch

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Mode selects the request transport.
type Mode string

const (
	// ModeAPI posts an authenticated JSON body (default).
	ModeAPI Mode = "api"
	// ModeURL issues an unauthenticated GET with query parameters.
	ModeURL Mode = "url"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	hostURL string
	mode    Mode

	apiKey        string
	requireAuth   bool
	nucleusServer string
	issuer        TokenIssuer

	scratchDir string
	assetDir   string

	limit                int
	cutoffThreshold      float64
	fileExtensionInclude string

	httpClient *http.Client
	onUpdate   func()

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithHostURL sets the search service endpoint. Required.
func WithHostURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.hostURL = url
	})
}

// WithMode selects API or URL transport. Defaults to ModeAPI.
func WithMode(m Mode) Option {
	return optionFunc(func(c *clientConfig) {
		c.mode = m
	})
}

// WithAPIKey sets the static API key credential. When empty, the
// NVIDIA_API_KEY environment variable is consulted at resolution time.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithNucleus enables bearer-token authorization for trusted instances,
// issued by the given Nucleus server.
func WithNucleus(server string) Option {
	return optionFunc(func(c *clientConfig) {
		c.requireAuth = true
		c.nucleusServer = server
	})
}

// WithTokenIssuer replaces the default HTTP token issuer. For tests and
// hosts that mint Nucleus tokens themselves.
func WithTokenIssuer(issuer TokenIssuer) Option {
	return optionFunc(func(c *clientConfig) {
		c.issuer = issuer
	})
}

// WithScratchDir sets the directory for decoded thumbnails.
// Defaults to a per-user temp location. Cleared once at construction.
func WithScratchDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.scratchDir = dir
	})
}

// WithAssetDir sets the directory for downloaded assets.
func WithAssetDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.assetDir = dir
	})
}

// WithLimit sets the maximum number of results per query. Default: 30.
func WithLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.limit = n
	})
}

// WithCutoffThreshold sets the relevance cutoff. Default: 1.05.
func WithCutoffThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.cutoffThreshold = t
	})
}

// WithFileExtensionInclude sets the extension filter. Default: "usd*".
func WithFileExtensionInclude(pattern string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fileExtensionInclude = pattern
	})
}

// WithHTTPClient replaces the default HTTP client for search and token requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithOnUpdate registers a callback fired after every controller state
// change. The UI layer uses it to rebuild the result grid.
func WithOnUpdate(fn func()) Option {
	return optionFunc(func(c *clientConfig) {
		c.onUpdate = fn
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
