package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/logger"
)

type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]service.Result, error)
	Boolean(ctx context.Context, query string) ([]service.Match, error)
}

type Reloader interface {
	Reload(ctx context.Context) error
}

type SearchResponse struct {
	Query   string           `json:"query"`
	Results []service.Result `json:"results"`
}

type BooleanResponse struct {
	Query     string          `json:"query"`
	TotalHits int             `json:"total_hits"`
	Documents []service.Match `json:"documents"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Position *int   `json:"position,omitempty"`
}

type Handler struct {
	searcher     Searcher
	reloader     Reloader
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(searcher Searcher, reloader Reloader, defaultLimit, maxResults int) *Handler {
	return &Handler{
		searcher:     searcher,
		reloader:     reloader,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the query and admin endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/boolean", h.Boolean)
	mux.HandleFunc("POST /api/v1/index/reload", h.Reload)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	results, err := h.searcher.Search(r.Context(), query, limit)
	if err != nil {
		h.fail(w, r, "ranked search failed", query, err)
		return
	}
	h.writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}

func (h *Handler) Boolean(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	matches, err := h.searcher.Boolean(r.Context(), query)
	if err != nil {
		var syntaxErr *boolean.SyntaxError
		if errors.As(err, &syntaxErr) {
			pos := syntaxErr.Pos
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: syntaxErr.Error(), Position: &pos})
			return
		}
		h.fail(w, r, "boolean search failed", query, err)
		return
	}
	h.writeJSON(w, http.StatusOK, BooleanResponse{Query: query, TotalHits: len(matches), Documents: matches})
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.reloader.Reload(r.Context()); err != nil {
		h.fail(w, r, "reload failed", "", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg, query string, err error) {
	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(msg, "query", query, "error", err)
	} else {
		log.Info(msg, "query", query, "error", err)
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = msg
	}
	h.writeError(w, status, message)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}
