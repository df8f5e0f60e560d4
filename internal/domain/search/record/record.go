// Package record defines the normalized search result record.
package record

// Record is a single normalized search hit. Only the url, thumbnail payload,
// and bounding box survive normalization; optional fields carry a presence flag
// instead of runtime key introspection.
type Record struct {
	url      string
	image    string
	hasImage bool
	bbox     [3]float64
	hasBBox  bool
	errMsg   string
}

// New creates a record for the given asset URL.
func New(url string) Record {
	return Record{url: url}
}

// WithImage returns a copy carrying a base64 thumbnail payload.
func (r Record) WithImage(b64 string) Record {
	r.image = b64
	r.hasImage = true
	return r
}

// WithBBox returns a copy carrying bounding box dimensions.
func (r Record) WithBBox(x, y, z float64) Record {
	r.bbox = [3]float64{x, y, z}
	r.hasBBox = true
	return r
}

// WithError returns a copy carrying a server-side error message.
// Error records have no thumbnail and are dropped from the result models.
func (r Record) WithError(msg string) Record {
	r.errMsg = msg
	return r
}

// URL returns the asset URL, rewritten to the public scheme.
func (r Record) URL() string { return r.url }

// Image returns the base64 thumbnail payload, if present.
func (r Record) Image() (string, bool) { return r.image, r.hasImage }

// BBox returns the bounding box dimensions, if present.
func (r Record) BBox() ([3]float64, bool) { return r.bbox, r.hasBBox }

// ErrorMessage returns the server-side error for this record, empty if none.
func (r Record) ErrorMessage() string { return r.errMsg }
