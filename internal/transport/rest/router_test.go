package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingocache/internal/config"
	"lingocache/internal/model"
	"lingocache/internal/service"
	"lingocache/internal/similarity"
	"lingocache/internal/telemetry"
)

type stubEvaluator struct {
	calls int
	err   error
}

func (s *stubEvaluator) Evaluate(_ context.Context, contentID, input string) (*model.EvaluationResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &model.EvaluationResult{
		Score:          95,
		IsAcceptable:   true,
		FeedbackText:   "Almost perfect.",
		SourceKind:     model.SourceTemplate,
		ResponseSource: model.ResponseTemplate,
		UsageCount:     1,
	}, nil
}

func newTestRouter(t *testing.T, eval *stubEvaluator, auth *service.AuthService) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	tracker := telemetry.NewTracker(16, nil, telemetry.NewPrometheusSink(reg))
	t.Cleanup(func() { tracker.Close(context.Background()) })
	tracker.Record(model.TelemetryEvent{ContentID: "42", Source: model.ResponseExact})

	return NewRouter(&Container{
		Evaluations: eval,
		AuthService: auth,
		Telemetry:   tracker,
		Scorer:      similarity.NewCachedScorer(similarity.NewScorer(nil), similarity.NewCache(10)),
		Metrics:     reg,
		Provider:    "mock",
		Backend:     "memory",
	})
}

func do(h http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateEndpoint(t *testing.T) {
	eval := &stubEvaluator{}
	h := newTestRouter(t, eval, nil)

	rec := do(h, http.MethodPost, "/v1/evaluations", map[string]string{"contentId": "42", "input": "Bebo cafe"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res model.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 95, res.Score)
	assert.Equal(t, model.ResponseTemplate, res.ResponseSource)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEvaluateEndpointRejectsBadInput(t *testing.T) {
	eval := &stubEvaluator{}
	h := newTestRouter(t, eval, nil)

	rec := do(h, http.MethodPost, "/v1/evaluations", map[string]string{"contentId": "42"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Input is required")
	assert.Zero(t, eval.calls)

	eval.err = &model.InputError{Reason: "input has no words"}
	rec = do(h, http.MethodPost, "/v1/evaluations", map[string]string{"contentId": "42", "input": "?!"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "input has no words")

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestRouter(t, &stubEvaluator{}, nil)
	rec := do(h, http.MethodGet, "/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Telemetry       model.TelemetrySnapshot `json:"telemetry"`
		SimilarityCache similarity.CacheStats   `json:"similarityCache"`
		Provider        string                  `json:"provider"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Telemetry.Events)
	assert.Equal(t, 10, body.SimilarityCache.Capacity)
	assert.Equal(t, "mock", body.Provider)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, &stubEvaluator{}, nil)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", nil, "").Code)

	rec := do(h, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequiredWhenEnabled(t *testing.T) {
	auth := service.NewAuthService(config.AuthConfig{
		JWTSecret: "secret", ClientID: "app", ClientSecret: "pw", TokenTTLMin: 5,
	})
	eval := &stubEvaluator{}
	h := newTestRouter(t, eval, auth)
	body := map[string]string{"contentId": "42", "input": "Bebo cafe"}

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/v1/evaluations", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/v1/evaluations", body, "bogus").Code)

	rec := do(h, http.MethodPost, "/v1/auth/token", map[string]string{"clientId": "app", "clientSecret": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/v1/auth/token", map[string]string{"clientId": "app", "clientSecret": "pw"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tok model.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/v1/evaluations", body, tok.Token).Code)
	assert.Equal(t, 1, eval.calls)
}

func TestTokenRouteAbsentWithoutAuth(t *testing.T) {
	h := newTestRouter(t, &stubEvaluator{}, nil)
	rec := do(h, http.MethodPost, "/v1/auth/token", map[string]string{"clientId": "a", "clientSecret": "b"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
