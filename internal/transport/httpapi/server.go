// Package httpapi exposes the search pipeline over HTTP for panel frontends.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/usdsearch/internal/domain"
	"github.com/kailas-cloud/usdsearch/internal/domain/search/query"
	searchuc "github.com/kailas-cloud/usdsearch/internal/usecase/search"
)

// Server handles the /v1 search API.
type Server struct {
	search     *searchuc.Service
	scratchDir string
	limit      int
	fileExt    string
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, scratchDir string, limit int, fileExt string, logger *zap.Logger) *Server {
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	if fileExt == "" {
		fileExt = query.DefaultFileExtensions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:     search,
		scratchDir: scratchDir,
		limit:      limit,
		fileExt:    fileExt,
		logger:     logger,
	}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Get("/v1/thumbnails/{name}", s.handleThumbnail)
	r.Get("/health", s.handleHealth)
}

type searchRequest struct {
	Description          string `json:"description"`
	SceneURL             string `json:"scene_url"`
	Limit                int    `json:"limit"`
	FileExtensionInclude string `json:"file_extension_include"`
	ReturnMetadata       bool   `json:"return_metadata"`
}

type searchResult struct {
	ImagePath string `json:"image_path"`
	AssetURL  string `json:"asset_url"`
	AssetName string `json:"asset_name"`
	Thumbnail string `json:"thumbnail"`
}

// handleSearch runs the pipeline synchronously for one request.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "description is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.limit
	}
	q, err := query.New(req.Description, req.SceneURL, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	fileExt := req.FileExtensionInclude
	if fileExt == "" {
		fileExt = s.fileExt
	}
	q = q.WithFileExtensionInclude(fileExt).WithReturnMetadata(req.ReturnMetadata)

	models, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleSearchError(w, err)
		return
	}

	out := make([]searchResult, 0, len(models))
	for _, m := range models {
		out = append(out, searchResult{
			ImagePath: m.ImagePath(),
			AssetURL:  m.AssetURL(),
			AssetName: m.AssetName(),
			Thumbnail: "/v1/thumbnails/" + filepath.Base(m.ImagePath()),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleThumbnail serves a decoded thumbnail from the scratch directory.
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") ||
		!strings.HasSuffix(name, ".jpg") {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid thumbnail name")
		return
	}
	http.ServeFile(w, r, filepath.Join(s.scratchDir, name))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearchError(w http.ResponseWriter, err error) {
	s.logger.Error("search request failed", zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrAPIRequest):
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
	case errors.Is(err, domain.ErrMalformedResponse):
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
	case errors.Is(err, domain.ErrMissingCredential):
		writeError(w, http.StatusBadGateway, "missing_credential", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
