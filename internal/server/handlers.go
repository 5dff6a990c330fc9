package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hyperjump/medtriage/internal/extract"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/internal/recommendation"
	"github.com/hyperjump/medtriage/internal/storage"
	"go.uber.org/zap"
)

// DiagnosisService is the diagnosis flow set served over REST.
type DiagnosisService interface {
	FromSymptoms(ctx context.Context, report *models.SymptomReport) *models.DiagnosisResult
	FromRaw(ctx context.Context, text string) *models.DiagnosisResult
	Structure(ctx context.Context, text string) (*models.StructureResponse, error)
}

// RecommendationService answers medicine questions.
type RecommendationService interface {
	Recommend(ctx context.Context, question string) (*models.RecommendationResult, error)
}

// HistoryService answers history questions in natural language.
type HistoryService interface {
	Process(ctx context.Context, query string) string
}

// HistoryQuery is the body of POST /history/query.
type HistoryQuery struct {
	Query string `json:"query"`
}

// HistoryAnswer is the response of POST /history/query.
type HistoryAnswer struct {
	Answer string `json:"answer"`
}

// MountDiagnosis registers the diagnosis REST routes.
func (s *Server) MountDiagnosis(svc DiagnosisService) {
	s.router.Post("/diagnosis/from-symptoms", func(w http.ResponseWriter, r *http.Request) {
		var report models.SymptomReport
		if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := report.Validate(); err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Debug("diagnosis from symptoms", zap.Strings("symptoms", report.SymptomNames()))
		s.respondJSON(w, http.StatusOK, svc.FromSymptoms(r.Context(), &report))
	})

	s.router.Post("/diagnosis/raw", func(w http.ResponseWriter, r *http.Request) {
		var req models.RawRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.respondJSON(w, http.StatusOK, svc.FromRaw(r.Context(), req.Text))
	})

	s.router.Post("/diagnosis/get_structure", func(w http.ResponseWriter, r *http.Request) {
		var req models.RawRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		out, err := svc.Structure(r.Context(), req.Text)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, extract.ErrEmptyInput) || errors.Is(err, extract.ErrMalformedOutput) || errors.Is(err, extract.ErrMissingField) {
				status = http.StatusUnprocessableEntity
			}
			s.logger.Warn("structure extraction failed", zap.Error(err))
			s.respondError(w, status, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, out)
	})
}

// MountRecommendation registers POST /recommendation.
func (s *Server) MountRecommendation(svc RecommendationService) {
	s.router.Post("/recommendation", func(w http.ResponseWriter, r *http.Request) {
		var req models.RecommendationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		res, err := svc.Recommend(r.Context(), req.Question)
		if errors.Is(err, recommendation.ErrEmptyQuestion) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			s.logger.Error("recommendation failed", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, res)
	})
}

// MountHistory registers POST /history/query.
func (s *Server) MountHistory(svc HistoryService) {
	s.router.Post("/history/query", func(w http.ResponseWriter, r *http.Request) {
		var req HistoryQuery
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			s.respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		s.respondJSON(w, http.StatusOK, HistoryAnswer{Answer: svc.Process(r.Context(), req.Query)})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "agent": s.name})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"agent": s.name}
	if s.index != nil {
		count, err := s.index.DocCount()
		if err != nil {
			s.logger.Error("status: count documents failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["documents"] = count
	}
	if len(s.diskPaths) > 0 {
		diskBytes, err := storage.DiskUsageBytes(s.diskPaths...)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
