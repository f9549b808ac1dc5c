package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/invoice-extractor/config"
	"github.com/feichai0017/invoice-extractor/internal/watcher"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
)

type stubStats struct {
	stats watcher.Stats
}

func (s *stubStats) Snapshot() watcher.Stats {
	return s.stats
}

func testRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.GET("/status", h.Status)
	return r
}

func TestHealth(t *testing.T) {
	cfg := &config.Config{Bucket: "invoices"}
	h := NewHandlers(&stubStats{}, cfg, logger.NewTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStatus(t *testing.T) {
	cfg := &config.Config{
		Bucket:       "invoices",
		IntakePrefix: "intake/",
		DonePrefix:   "done/",
		ErrorPrefix:  "error/",
		JSONPrefix:   "json/",
		PollInterval: 3 * time.Second,
	}
	stats := &stubStats{stats: watcher.Stats{
		LastPoll:  time.Now(),
		Succeeded: 7,
		Failed:    2,
		Abandoned: 1,
	}}
	h := NewHandlers(stats, cfg, logger.NewTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	testRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invoices", body["bucket"])
	assert.Equal(t, "intake/", body["intakePrefix"])
	assert.Equal(t, float64(7), body["succeeded"])
	assert.Equal(t, float64(2), body["failed"])
	assert.Equal(t, float64(1), body["abandoned"])
	assert.Equal(t, "3s", body["pollInterval"])
}
