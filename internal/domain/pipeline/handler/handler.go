// Package handler exposes the document pipeline over HTTP.
package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/facturio/stocksync/internal/domain/catalog"
	"github.com/facturio/stocksync/internal/domain/document"
	"github.com/facturio/stocksync/internal/domain/pipeline/service"
	"github.com/facturio/stocksync/pkg/logging"
	"github.com/facturio/stocksync/pkg/metrics"
	"github.com/facturio/stocksync/pkg/storage"
)

// ParseRequest is the upstream-compatible parse payload. DocType "avoir"
// selects credit note handling; anything else is treated as an invoice.
type ParseRequest struct {
	DocType    string `json:"docType"`
	FileBase64 string `json:"fileBase64"`
	FileName   string `json:"fileName,omitempty"`
}

// ParsedLine is the reduced line shape the parse endpoint returns: only
// lines carrying both a reference and a quantity survive.
type ParsedLine struct {
	Reference   string  `json:"reference"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
}

type ParseResponse struct {
	Lines []ParsedLine `json:"lines"`
}

type RefreshResponse struct {
	Products int `json:"products"`
}

type SearchHitResponse struct {
	Reference string  `json:"reference"`
	Name      string  `json:"name"`
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

type SearchResponse struct {
	Hits []SearchHitResponse `json:"hits"`
}

type ListDocumentsResponse struct {
	Documents []*storage.DocumentInfo `json:"documents"`
}

// PipelineHandler serves the pipeline endpoints.
type PipelineHandler struct {
	svc     *service.PipelineService
	archive storage.Archive
	logger  *slog.Logger
}

// NewPipelineHandler creates the handler. The archive may be nil, which
// disables document archiving and the archive endpoints.
func NewPipelineHandler(svc *service.PipelineService, archive storage.Archive, logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{
		svc:     svc,
		archive: archive,
		logger:  logger,
	}
}

// Routes assembles the HTTP surface.
func (h *PipelineHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.AllowAll().Handler)

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents/parse", h.handleParse)
		r.Get("/documents", h.handleListDocuments)
		r.Get("/documents/{documentID}", h.handleDownloadDocument)
		r.Post("/products/refresh", h.handleRefresh)
		r.Get("/products/search", h.handleSearch)
	})
	return r
}

func (h *PipelineHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *PipelineHandler) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.FileBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64: "+err.Error())
		return
	}

	kind := document.ParseKind(req.DocType)
	name := req.FileName
	if name == "" {
		// No extension: Decode falls back to content sniffing.
		name = "document"
	}

	logger := logging.FromContext(r.Context())

	if h.archive != nil {
		if _, err := h.archive.Save(r.Context(), name, kind.String(), bytes.NewReader(data)); err != nil {
			logger.Warn("failed to archive document", slog.Any("error", err))
		}
	}

	res, err := h.svc.Process(r.Context(), name, data, service.Options{Kind: kind.Label()})
	if err != nil {
		logger.Error("parse failed", slog.String("source", name), slog.Any("error", err))
		writeError(w, http.StatusUnprocessableEntity, "failed to parse document")
		return
	}

	resp := ParseResponse{Lines: make([]ParsedLine, 0, len(res.Document.Lines))}
	for _, line := range res.Document.Lines {
		if !line.HasReference() || !line.Quantity.Valid {
			continue
		}
		resp.Lines = append(resp.Lines, ParsedLine{
			Reference:   line.Reference,
			Description: line.Description,
			Quantity:    line.Quantity.Decimal.InexactFloat64(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PipelineHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.RefreshCatalog(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("catalog refresh failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "catalog refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Products: count})
}

func (h *PipelineHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := parseIntParam(r, "limit", 10)

	hits, err := h.svc.SearchProducts(query, limit)
	if err != nil {
		if errors.Is(err, catalog.ErrSearchDisabled) {
			writeError(w, http.StatusServiceUnavailable, "product search is disabled")
			return
		}
		logging.FromContext(r.Context()).Error("product search failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "product search failed")
		return
	}

	resp := SearchResponse{Hits: make([]SearchHitResponse, 0, len(hits))}
	for _, hit := range hits {
		resp.Hits = append(resp.Hits, SearchHitResponse{
			Reference: hit.Document.Reference,
			Name:      hit.Document.Name,
			ProductID: hit.Document.ProductID,
			Score:     hit.Score,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PipelineHandler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusOK, ListDocumentsResponse{Documents: []*storage.DocumentInfo{}})
		return
	}
	infos, err := h.archive.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list archive", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, ListDocumentsResponse{Documents: infos})
}

func (h *PipelineHandler) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "document archive is disabled")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	rc, info, err := h.archive.Open(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+info.Name+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		logging.FromContext(r.Context()).Warn("document download interrupted", slog.Any("error", err))
	}
}

// parseIntParam parses an integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
