package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/medtriage/internal/agent"
	"github.com/hyperjump/medtriage/internal/diagnosis"
	"github.com/hyperjump/medtriage/internal/keyword"
	"github.com/hyperjump/medtriage/internal/llm"
	"github.com/hyperjump/medtriage/internal/metrics"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/internal/recommendation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func diseaseIndex(t *testing.T) keyword.Index {
	t.Helper()
	idx, err := keyword.NewMemBleveIndex(keyword.DiseaseMapping())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	_, err = idx.BulkIndex(context.Background(), []keyword.Document{
		{ID: "disease-0", Data: map[string]string{"Name": "Food poisoning", "Symptoms": "fever, nausea, diarrhea", "Treatments": "fluids"}},
	}, 0)
	require.NoError(t, err)
	return idx
}

func TestDiagnosisRoutes(t *testing.T) {
	idx := diseaseIndex(t)
	m := llm.NewMock()
	m.Respond = func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "format the following information in JSON"):
			if strings.Contains(prompt, "garbage") {
				return "sorry, no", nil
			}
			return `{"description":"seafood","symptoms":[{"name":"fever","severity":"high"}],"since":"2025-08-10"}`, nil
		case strings.HasPrefix(prompt, "Can you make me a title"):
			return "Food Poisoning", nil
		default:
			return "It looks like food poisoning.", nil
		}
	}
	svc := diagnosis.NewService(diagnosis.NewIndexRetriever(idx), m, nil)
	s := New("diagnosis", "localhost", 0, WithLogger(zap.NewNop()))
	s.MountDiagnosis(svc)
	h := s.Handler()

	w := post(t, h, "/diagnosis/from-symptoms",
		`{"description":"seafood","symptoms":[{"name":"fever","severity":"high"}],"since":"2025-08-10"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res models.DiagnosisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Food Poisoning", res.Title)
	assert.Equal(t, "It looks like food poisoning.", res.Diagnosis)
	require.NotNil(t, res.Recommendation)
	assert.Equal(t, diagnosis.RecommendationUnavailable, res.Recommendation.Answer)

	w = post(t, h, "/diagnosis/from-symptoms", `{"description":"x","symptoms":[{"name":"fever"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = post(t, h, "/diagnosis/from-symptoms", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, h, "/diagnosis/raw", `{"text":"high fever since Aug 10"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "It looks like food poisoning.", res.Diagnosis)

	w = post(t, h, "/diagnosis/get_structure", `{"text":"high fever since Aug 10"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var structure models.StructureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &structure))
	assert.Contains(t, structure.Structure, `"since":"2025-08-10"`)

	w = post(t, h, "/diagnosis/get_structure", `{"text":"garbage"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = post(t, h, "/diagnosis/get_structure", `{"text":"  "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

type stubRecommender struct {
	res *models.RecommendationResult
	err error
}

func (s stubRecommender) Recommend(_ context.Context, question string) (*models.RecommendationResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, recommendation.ErrEmptyQuestion
	}
	return s.res, s.err
}

func TestRecommendationRoute(t *testing.T) {
	s := New("recommendation", "localhost", 0)
	s.MountRecommendation(stubRecommender{res: &models.RecommendationResult{Answer: "Take Painaway", Medicines: []models.MedicineRecord{}}})
	h := s.Handler()

	w := post(t, h, "/recommendation", `{"question":"migraine"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"Take Painaway","medicines":[]}`, w.Body.String())

	w = post(t, h, "/recommendation", `{"question":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := New("recommendation", "localhost", 0)
	failing.MountRecommendation(stubRecommender{err: errors.New("llm down")})
	w = post(t, failing.Handler(), "/recommendation", `{"question":"flu"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "llm down")
}

type stubHistory struct{ got string }

func (s *stubHistory) Process(_ context.Context, query string) string {
	s.got = query
	return "You had the flu."
}

func TestHistoryRoute(t *testing.T) {
	hist := &stubHistory{}
	s := New("history", "localhost", 0)
	s.MountHistory(hist)

	w := post(t, s.Handler(), "/history/query", `{"query":"what did I have?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"You had the flu."}`, w.Body.String())
	assert.Equal(t, "what did I have?", hist.got)

	w = post(t, s.Handler(), "/history/query", `{"query":" "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommonRoutes(t *testing.T) {
	idx := diseaseIndex(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.db"), []byte("12345"), 0644))

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "diagnosis")
	m.Request("raw")

	id := agent.NewIdentity("diagnosis", "seed")
	d := agent.NewDispatcher(id)
	d.Handle(agent.SchemaDiagnosisRaw, func(_ context.Context, env *agent.Envelope) ([]*agent.Envelope, error) {
		reply, err := env.Reply(id, agent.SchemaDiagnosisResponse, models.DiagnosisResult{Title: "ok"})
		return []*agent.Envelope{reply}, err
	})

	s := New("diagnosis", "127.0.0.1", 8000,
		WithSubmit(d),
		WithMetrics(reg),
		WithStatus(idx, filepath.Join(dir, "history.db"), filepath.Join(dir, "missing")),
	)
	assert.Equal(t, "127.0.0.1:8000", s.Addr())
	h := s.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","agent":"diagnosis"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Agent          string `json:"agent"`
		Documents      uint64 `json:"documents"`
		DiskUsageBytes *int64 `json:"disk_usage_bytes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, uint64(1), status.Documents)
	require.NotNil(t, status.DiskUsageBytes)
	assert.Equal(t, int64(5), *status.DiskUsageBytes)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "medtriage_requests_total")

	env, err := agent.NewEnvelope(agent.NewIdentity("c", "c"), id.Address, agent.SchemaDiagnosisRaw, models.RawRequest{Text: "x"})
	require.NoError(t, err)
	body, _ := json.Marshal(env)
	r := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(body))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	var sub agent.SubmitResponse
	require.NoError(t, json.NewDecoder(io.LimitReader(w.Body, 1<<20)).Decode(&sub))
	require.Len(t, sub.Replies, 1)
	assert.Equal(t, agent.SchemaDiagnosisResponse, sub.Replies[0].Schema)
}

func TestStop(t *testing.T) {
	s := New("history", "127.0.0.1", 0)
	assert.NoError(t, s.Stop(context.Background()))
}
