// Package api serves retrieval, context assembly and incremental indexing
// over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	retriever driving.Retriever
	answer    driving.AnswerService
	indexer   driving.Indexer
	metrics   http.Handler
	mcp       http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(hd *Handler) {
		hd.metrics = h
	}
}

// WithMCP mounts an MCP streamable HTTP handler under /mcp.
func WithMCP(h http.Handler) Option {
	return func(hd *Handler) {
		hd.mcp = h
	}
}

// NewHandler creates a handler over the driving ports.
func NewHandler(
	retriever driving.Retriever,
	answer driving.AnswerService,
	indexer driving.Indexer,
	opts ...Option,
) *Handler {
	h := &Handler{
		retriever: retriever,
		answer:    answer,
		indexer:   indexer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Query   string   `json:"query"`
	K       int      `json:"k,omitempty"`
	Filters []string `json:"filters,omitempty"`
}

// ContextRequest is the body of POST /v1/context.
type ContextRequest struct {
	Query           string `json:"query"`
	K               int    `json:"k,omitempty"`
	MaxContextChars int    `json:"max_context_chars,omitempty"`
}

// DocumentsRequest is the body of POST /v1/documents.
type DocumentsRequest struct {
	Documents []DocumentInput `json:"documents"`
}

// DocumentInput is one document to add.
type DocumentInput struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Result is one retrieved chunk.
type Result struct {
	ChunkID    string            `json:"chunk_id"`
	DocumentID string            `json:"document_id"`
	Source     string            `json:"source"`
	Offset     int               `json:"offset"`
	Score      float64           `json:"score"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// RetrieveResponse is returned by POST /v1/retrieve.
type RetrieveResponse struct {
	Results []Result `json:"results"`
}

// ContextResponse is returned by POST /v1/context.
type ContextResponse struct {
	Prompt  string   `json:"prompt"`
	Sources []Result `json:"sources"`
}

// DocumentsResponse is returned by POST /v1/documents.
type DocumentsResponse struct {
	Documents int `json:"documents"`
	Skipped   int `json:"skipped"`
	Chunks    int `json:"chunks"`
	Entries   int `json:"entries"`
}

// StatsResponse is returned by GET /v1/stats.
type StatsResponse struct {
	Kind      string `json:"kind"`
	Metric    string `json:"metric"`
	Dimension int    `json:"dimension"`
	Entries   int    `json:"entries"`
	Documents int    `json:"documents"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleRetrieve handles POST /v1/retrieve requests.
func (h *Handler) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decode(w, r, &req) {
		return
	}

	filters := make([]domain.Filter, 0, len(req.Filters))
	for _, expr := range req.Filters {
		f, err := domain.ParseFilter(expr)
		if err != nil {
			sendError(w, err)
			return
		}
		filters = append(filters, f)
	}

	results, err := h.retriever.Retrieve(r.Context(), req.Query, domain.RetrieveOptions{
		K:       req.K,
		Filters: filters,
	})
	if err != nil {
		sendError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, RetrieveResponse{Results: toResults(results)})
}

// HandleContext handles POST /v1/context requests.
func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
	var req ContextRequest
	if !decode(w, r, &req) {
		return
	}
	if req.MaxContextChars < 0 {
		sendError(w, fmt.Errorf("%w: max_context_chars must not be negative", domain.ErrInvalidInput))
		return
	}

	prompt, results, err := h.answer.ContextWithin(r.Context(), req.Query,
		domain.RetrieveOptions{K: req.K}, req.MaxContextChars)
	if err != nil {
		sendError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, ContextResponse{Prompt: prompt, Sources: toResults(results)})
}

// HandleDocuments handles POST /v1/documents requests.
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	var req DocumentsRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		sendError(w, fmt.Errorf("%w: no documents", domain.ErrInvalidInput))
		return
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		if strings.TrimSpace(d.ID) == "" {
			sendError(w, fmt.Errorf("%w: document %d has no id", domain.ErrInvalidInput, i))
			return
		}
		docs[i] = domain.Document{ID: d.ID, Text: d.Text, Metadata: d.Metadata}
	}

	report, err := h.indexer.Add(r.Context(), docs)
	if err != nil {
		sendError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, DocumentsResponse{
		Documents: report.Documents,
		Skipped:   report.Skipped,
		Chunks:    report.Chunks,
		Entries:   report.Entries,
	})
}

// HandleStats handles GET /v1/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.indexer.Stats()
	sendJSON(w, http.StatusOK, StatsResponse{
		Kind:      string(stats.Kind),
		Metric:    string(stats.Metric),
		Dimension: stats.Dimension,
		Entries:   stats.Entries,
		Documents: stats.Documents,
	})
}

// HandleHealth handles GET /healthz requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"entries": h.indexer.Stats().Entries,
	})
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDimensionMismatch),
		errors.Is(err, domain.ErrEmbeddingDimensionMismatch),
		errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmbeddingTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		sendError(w, fmt.Errorf("%w: invalid JSON: %v", domain.ErrInvalidInput, err))
		return false
	}
	return true
}

func toResults(results []domain.SearchResult) []Result {
	out := make([]Result, len(results))
	for i := range results {
		c := results[i].Chunk
		out[i] = Result{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Source:     c.Source(),
			Offset:     c.Offset,
			Score:      results[i].Score,
			Text:       c.Text,
			Metadata:   c.Metadata,
		}
	}
	return out
}

func sendError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("Request failed: %v", err)
	}
	sendJSON(w, status, ErrorResponse{Error: err.Error()})
}

// sendJSON sends a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("Writing response: %v", err)
	}
}
