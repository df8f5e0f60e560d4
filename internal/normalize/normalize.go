// Package normalize reshapes raw USD Search API records into the stable
// result schema consumed by the rest of the pipeline.
package normalize

import (
	"strings"

	"github.com/kailas-cloud/usdsearch/internal/domain/search/record"
)

// The search index reports assets under its internal storage scheme; thumbnails
// and references need the public content mirror instead. This is an exact prefix
// substitution of the one known pattern, not general URL rewriting.
const (
	internalPrefix = "s3://deepsearch-demo-content/"
	publicPrefix   = "https://omniverse-content-production.s3.us-west-2.amazonaws.com/"
)

// Raw is an untyped record as returned by the API. Unknown keys are dropped
// at decode time; absent keys stay nil.
type Raw struct {
	URL   *string   `json:"url"`
	Image *string   `json:"image"`
	BBox  []float64 `json:"bbox_dimension"`
	BBoxX *float64  `json:"bbox_dimension_x"`
	BBoxY *float64  `json:"bbox_dimension_y"`
	BBoxZ *float64  `json:"bbox_dimension_z"`
	Error *string   `json:"error"`
}

// Records normalizes a raw response array. Pure: never errors, missing keys
// are simply absent in the output.
func Records(raws []Raw) []record.Record {
	out := make([]record.Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, one(raw))
	}
	return out
}

func one(raw Raw) record.Record {
	var url string
	if raw.URL != nil {
		url = RewriteURL(*raw.URL)
	}
	rec := record.New(url)
	if raw.Image != nil {
		rec = rec.WithImage(*raw.Image)
	}
	switch {
	case len(raw.BBox) == 3:
		rec = rec.WithBBox(raw.BBox[0], raw.BBox[1], raw.BBox[2])
	case raw.BBoxX != nil && raw.BBoxY != nil && raw.BBoxZ != nil:
		// Per-axis dimensions are folded into a single bounding box.
		rec = rec.WithBBox(*raw.BBoxX, *raw.BBoxY, *raw.BBoxZ)
	}
	if raw.Error != nil {
		rec = rec.WithError(*raw.Error)
	}
	return rec
}

// RewriteURL replaces the internal storage prefix with the public one.
// URLs without the prefix pass through unchanged, so the rewrite is idempotent.
func RewriteURL(url string) string {
	if rest, ok := strings.CutPrefix(url, internalPrefix); ok {
		return publicPrefix + rest
	}
	return url
}
