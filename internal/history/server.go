package history

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/internal/storage"
	"go.uber.org/zap"
)

// Response is the body returned by POST /get-history.
type Response struct {
	Username string                  `json:"username"`
	Total    int64                   `json:"total"`
	Records  []*models.HistoryRecord `json:"records"`
}

// AddRequest is the body accepted by POST /add-history.
type AddRequest struct {
	Username  string `json:"username"`
	Title     string `json:"title"`
	Diagnosis string `json:"diagnosis"`
}

// BackendServer serves the history backend API over a HistoryStore.
type BackendServer struct {
	store  storage.HistoryStore
	limit  int
	logger *zap.Logger
}

// NewBackendServer creates a backend returning at most limit records per user (<= 0: all).
func NewBackendServer(store storage.HistoryStore, limit int, logger *zap.Logger) *BackendServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackendServer{store: store, limit: limit, logger: logger}
}

// Register mounts the backend routes on r.
func (b *BackendServer) Register(r chi.Router) {
	r.Post("/get-history", b.handleGetHistory)
	r.Post("/add-history", b.handleAddHistory)
}

func (b *BackendServer) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	var req GetHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}
	b.logger.Debug("get history", zap.String("username", username), zap.String("host", r.Host))

	records, err := b.store.ListByUsername(r.Context(), username, b.limit)
	if err != nil {
		b.logger.Error("list history failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := b.store.Count(r.Context(), username)
	if err != nil {
		b.logger.Error("count history failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, Response{Username: username, Total: total, Records: records})
}

func (b *BackendServer) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec := &models.HistoryRecord{Username: req.Username, Title: req.Title, Diagnosis: req.Diagnosis}
	if err := b.store.AddRecord(r.Context(), rec); err != nil {
		if errors.Is(err, storage.ErrInvalidRecord) {
			respondError(w, http.StatusBadRequest, "username and diagnosis are required")
			return
		}
		b.logger.Error("add history failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
