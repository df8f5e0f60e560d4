// Package query defines the immutable search query value object.
package query

import "fmt"

// Defaults for the USD Search API payload.
const (
	DefaultLimit            = 30
	DefaultCutoffThreshold  = 1.05
	DefaultFileExtensions   = "usd*"
	defaultReturnImages     = true
	defaultReturnMetadata   = false
	defaultReturnRootPrims  = false
	defaultReturnPrediction = false
)

// Query describes a single search request. Built fresh per request, never mutated.
type Query struct {
	description          string
	sceneURL             string
	limit                int
	cutoffThreshold      float64
	returnImages         bool
	returnMetadata       bool
	returnRootPrims      bool
	returnPredictions    bool
	fileExtensionInclude string
}

// New builds a query with API defaults. The limit must be positive.
// An empty description is allowed and short-circuits to a no-op downstream.
func New(description, sceneURL string, limit int) (Query, error) {
	if limit <= 0 {
		return Query{}, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return Query{
		description:          description,
		sceneURL:             sceneURL,
		limit:                limit,
		cutoffThreshold:      DefaultCutoffThreshold,
		returnImages:         defaultReturnImages,
		returnMetadata:       defaultReturnMetadata,
		returnRootPrims:      defaultReturnRootPrims,
		returnPredictions:    defaultReturnPrediction,
		fileExtensionInclude: DefaultFileExtensions,
	}, nil
}

// MustNew builds a query and panics on invalid arguments. For tests and fixed callers.
func MustNew(description, sceneURL string, limit int) Query {
	q, err := New(description, sceneURL, limit)
	if err != nil {
		panic(err)
	}
	return q
}

// WithCutoffThreshold returns a copy with the given relevance cutoff.
func (q Query) WithCutoffThreshold(t float64) Query {
	q.cutoffThreshold = t
	return q
}

// WithFileExtensionInclude returns a copy with the given extension filter.
func (q Query) WithFileExtensionInclude(pattern string) Query {
	q.fileExtensionInclude = pattern
	return q
}

// WithReturnMetadata returns a copy with metadata retrieval toggled.
func (q Query) WithReturnMetadata(v bool) Query {
	q.returnMetadata = v
	return q
}

// WithoutImages returns a copy that does not request thumbnails.
func (q Query) WithoutImages() Query {
	q.returnImages = false
	return q
}

// IsEmpty reports whether the description is empty (no-op query).
func (q Query) IsEmpty() bool { return q.description == "" }

// Description returns the natural-language description.
func (q Query) Description() string { return q.description }

// SceneURL returns the scene to search in, empty for global search.
func (q Query) SceneURL() string { return q.sceneURL }

// Limit returns the maximum number of results.
func (q Query) Limit() int { return q.limit }

// CutoffThreshold returns the relevance cutoff.
func (q Query) CutoffThreshold() float64 { return q.cutoffThreshold }

// ReturnImages reports whether thumbnails are requested.
func (q Query) ReturnImages() bool { return q.returnImages }

// ReturnMetadata reports whether metadata is requested.
func (q Query) ReturnMetadata() bool { return q.returnMetadata }

// ReturnRootPrims reports whether root prims are requested.
func (q Query) ReturnRootPrims() bool { return q.returnRootPrims }

// ReturnPredictions reports whether predictions are requested.
func (q Query) ReturnPredictions() bool { return q.returnPredictions }

// FileExtensionInclude returns the extension filter pattern.
func (q Query) FileExtensionInclude() string { return q.fileExtensionInclude }
