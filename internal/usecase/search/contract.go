package search

import (
	"context"

	"github.com/kailas-cloud/usdsearch/internal/domain/search/query"
	"github.com/kailas-cloud/usdsearch/internal/domain/search/record"
)

// Sender issues the search request and returns normalized records.
type Sender interface {
	Send(ctx context.Context, q query.Query) ([]record.Record, error)
}

// ImageDecoder persists a base64 thumbnail payload and returns its file path.
type ImageDecoder interface {
	DecodeToFile(b64 string) (string, error)
}
