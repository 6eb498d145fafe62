package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingocache/internal/config"
	"lingocache/internal/model"
)

func post(t *testing.T, h http.Handler, contentID, input string) *model.EvaluationResult {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"contentId": contentID, "input": input})
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return &res
}

func TestBuildInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Gateway.APIKey = ""
	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, "memory", a.Backend)
	assert.Equal(t, "mock", a.Provider)

	first := post(t, a.Handler, "42", "Bebo cafe cada manana")
	assert.Equal(t, 95, first.Score)
	assert.Equal(t, model.ResponseTemplate, first.ResponseSource)

	again := post(t, a.Handler, "42", "bebo cafe cada manana")
	assert.Equal(t, model.ResponseExact, again.ResponseSource)
	assert.Equal(t, int64(2), again.UsageCount)

	// no template applies, so the mock evaluator answers; its verdict is not cached
	local := post(t, a.Handler, "44", "Tengo una gata")
	assert.Equal(t, model.ResponseDegraded, local.ResponseSource)
	assert.Equal(t, model.SourceDegraded, local.SourceKind)
	again = post(t, a.Handler, "44", "Tengo una gata")
	assert.Equal(t, model.ResponseDegraded, again.ResponseSource)

	assert.Eventually(t, func() bool {
		return a.Tracker.Snapshot().Events == 4
	}, time.Second, 10*time.Millisecond)
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Gateway.Provider = "nope"
	cfg.Gateway.APIKey = "k"
	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}
