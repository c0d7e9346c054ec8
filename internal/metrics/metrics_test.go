package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveRecommendation(true)
	m.ObserveRecommendation(true)
	m.ObserveRecommendation(false)
	m.ObserveGeneration("openai:gpt2", "ok")

	assert.InDelta(t, 2, testutil.ToFloat64(m.recommendations.WithLabelValues("matched")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.recommendations.WithLabelValues("no_match")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.generations.WithLabelValues("openai:gpt2", "ok")), 0)
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `supplementer_http_request_duration_seconds_count{code="418",method="GET",route="/items/{id}"} 1`), body)
}
