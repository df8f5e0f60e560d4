// Package search turns normalized search records into displayable result models.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/usdsearch/internal/domain/search/query"
	"github.com/kailas-cloud/usdsearch/internal/domain/search/result"
)

// Service runs the full request pipeline: send, then decode thumbnails.
type Service struct {
	sender  Sender
	decoder ImageDecoder
	logger  *zap.Logger
}

// New creates a search service.
func New(sender Sender, decoder ImageDecoder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sender: sender, decoder: decoder, logger: logger}
}

// Search executes the query and builds one result model per record that
// carries a thumbnail. Records without a thumbnail are skipped: the API uses
// imageless records for error placeholders and metadata-only hits, neither of
// which is renderable. A record that fails to decode is dropped, not fatal.
func (s *Service) Search(ctx context.Context, q query.Query) ([]result.Model, error) {
	records, err := s.sender.Send(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("send search request: %w", err)
	}

	models := make([]result.Model, 0, len(records))
	for _, rec := range records {
		if msg := rec.ErrorMessage(); msg != "" {
			s.logger.Error("search result error", zap.String("error", msg))
		}
		payload, ok := rec.Image()
		if !ok {
			continue
		}
		path, err := s.decoder.DecodeToFile(payload)
		if err != nil {
			s.logger.Warn("dropping undecodable thumbnail",
				zap.String("url", rec.URL()), zap.Error(err))
			continue
		}
		models = append(models, result.New(path, rec.URL()))
	}
	return models, nil
}
