// Package controller owns the search session state: the authoritative
// in-flight request, duplicate-query suppression, and the result list
// exposed to the presentation layer.
package controller

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/usdsearch/internal/domain/search/query"
	"github.com/kailas-cloud/usdsearch/internal/domain/search/result"
)

// DefaultStatus is the idle prompt shown before any results exist.
const DefaultStatus = "Enter an office / warehouse related description."

// Searcher runs the request pipeline for one query.
type Searcher interface {
	Search(ctx context.Context, q query.Query) ([]result.Model, error)
}

// ScratchCleaner clears leftover thumbnails from previous runs.
type ScratchCleaner interface {
	ClearScratchDir()
}

// Options tune per-query parameters and the controller's callbacks.
type Options struct {
	Limit                int     // default 30
	CutoffThreshold      float64 // default 1.05
	FileExtensionInclude string  // default "usd*"
	DefaultStatus        string  // default DefaultStatus
	OnUpdate             func()  // fired after every state change (UI rebuild hook)
}

// Controller supersedes in-flight requests when a new query arrives and
// applies completions in submission order. All methods are safe for
// concurrent use; results and markers are mutated only under the lock and
// only by the generation that is still current.
type Controller struct {
	searcher Searcher
	logger   *zap.Logger

	limit         int
	cutoff        float64
	fileExt       string
	defaultStatus string
	onUpdate      func()

	mu        sync.Mutex
	status    string // empty while results are authoritative
	results   []result.Model
	lastQuery string
	lastScene string
	completed bool // at least one query finished successfully
	cancel    context.CancelFunc
	gen       uint64
}

// New creates a controller. The scratch directory is cleared exactly once
// here, never per query, so thumbnails stay valid for the process lifetime.
func New(searcher Searcher, cleaner ScratchCleaner, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Limit <= 0 {
		opts.Limit = query.DefaultLimit
	}
	if opts.CutoffThreshold <= 0 {
		opts.CutoffThreshold = query.DefaultCutoffThreshold
	}
	if opts.FileExtensionInclude == "" {
		opts.FileExtensionInclude = query.DefaultFileExtensions
	}
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = DefaultStatus
	}
	if cleaner != nil {
		cleaner.ClearScratchDir()
	}
	return &Controller{
		searcher:      searcher,
		logger:        logger,
		limit:         opts.Limit,
		cutoff:        opts.CutoffThreshold,
		fileExt:       opts.FileExtensionInclude,
		defaultStatus: opts.DefaultStatus,
		onUpdate:      opts.OnUpdate,
		status:        opts.DefaultStatus,
	}
}

// Submit starts a search for the given description and scene context.
// Repeating the last successfully completed (description, scene) pair is a
// no-op. An empty description clears results and restores the idle prompt
// without a network call. Anything else cancels the in-flight request, if
// any, and becomes the new authoritative request.
func (c *Controller) Submit(description, sceneURL string) {
	c.mu.Lock()

	if c.completed && description == c.lastQuery && sceneURL == c.lastScene {
		c.mu.Unlock()
		return
	}

	if description == "" {
		c.cancelInFlightLocked()
		c.results = nil
		c.status = c.defaultStatus
		c.mu.Unlock()
		c.notify()
		return
	}

	q, err := query.New(description, sceneURL, c.limit)
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("invalid query", zap.Error(err))
		return
	}
	q = q.WithCutoffThreshold(c.cutoff).WithFileExtensionInclude(c.fileExt)

	c.cancelInFlightLocked()
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	// Clear the status so results take over once they arrive.
	c.status = ""
	c.mu.Unlock()

	go c.run(ctx, gen, q)
}

// Reset cancels any in-flight request and returns to the idle state,
// including the duplicate-suppression markers, so the same text can be
// searched again.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.cancelInFlightLocked()
	c.results = nil
	c.lastQuery = ""
	c.lastScene = ""
	c.completed = false
	c.status = c.defaultStatus
	c.mu.Unlock()
	c.notify()
}

// Results returns a snapshot of the current result list.
func (c *Controller) Results() []result.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]result.Model, len(c.results))
	copy(out, c.results)
	return out
}

// Status returns the current status message. Empty means the result list is
// authoritative and should be rendered instead.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// run awaits the pipeline, then applies the outcome only if this generation
// is still the current one. The generation check after the await point is
// what keeps a superseded completion from ever touching shared state.
func (c *Controller) run(ctx context.Context, gen uint64, q query.Query) {
	models, err := c.searcher.Search(ctx, q)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.cancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.mu.Unlock()
			return
		}
		c.logger.Error("search failed", zap.String("description", q.Description()), zap.Error(err))
		// Results stay as they were; the status substitutes for the grid.
		c.status = "Search failed: " + err.Error()
		c.mu.Unlock()
		c.notify()
		return
	}

	c.results = models
	c.status = ""
	// Markers move only on success so a cancelled or failed request does
	// not block retrying the same text.
	c.lastQuery = q.Description()
	c.lastScene = q.SceneURL()
	c.completed = true
	c.mu.Unlock()

	c.logger.Info("search completed",
		zap.String("description", q.Description()),
		zap.Int("results", len(models)),
	)
	c.notify()
}

func (c *Controller) cancelInFlightLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.gen++ // orphan the old generation even if its ctx check races
	}
}

func (c *Controller) notify() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}
