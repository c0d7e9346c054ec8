package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/soufiangit/supplementer.ai/internal/catalog"
	"github.com/soufiangit/supplementer.ai/internal/services/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct{ text string }

func (s stubGenerator) Generate(context.Context, string) (string, error) { return s.text, nil }

func (s stubGenerator) Name() string { return "stub" }

type failingService struct{ err error }

func (f failingService) Recommend(context.Context, recommend.Input) (*recommend.Result, error) {
	return nil, f.err
}

func newTestHandler() *RecommendHandler {
	svc := recommend.New(recommend.Dependencies{
		Catalog: catalog.New([]catalog.Supplement{
			{Name: "Vitamin D3", Description: "Supports bone health and immune function."},
			{Name: "Magnesium", Description: "Promotes relaxation and better sleep quality."},
			{Name: "Melatonin", Description: "Regulates the sleep cycle."},
		}),
		Generator: stubGenerator{text: "Consider magnesium <b>before bed</b>."},
	})
	return NewRecommendHandler(svc, zap.NewNop())
}

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func postForm(h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestIndexJSONStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, decodeBody(t, rec))
}

func TestIndexHTML(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	newTestHandler().Index(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `<form method="post" action="/recommend">`)
	assert.Contains(t, body, `<option value="general" selected>General</option>`)
	assert.NotContains(t, body, "<h2>Recommendations</h2>")
}

func TestRecommendJSON(t *testing.T) {
	rec := postJSON(newTestHandler().Recommend, `{"goals":["Sleep"],"depth_level":"specific","api_key":"ignored"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["message"])
	assert.Equal(t, []any{"Sleep"}, body["goals"])
	assert.Equal(t, []any{"Magnesium", "Melatonin"}, body["recommendations"])
	assert.Equal(t, []any{
		"What specific health concerns do you want to target?",
		"Do you have any dietary restrictions?",
	}, body["questions_to_ask"])

	generated, present := body["gpt2_response"]
	assert.True(t, present)
	assert.Nil(t, generated)
	assert.NotContains(t, body, "generation_error")
}

func TestRecommendJSONEchoesGoals(t *testing.T) {
	rec := postJSON(newTestHandler().Recommend, `{"goals":[" Sleep ",""]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{" Sleep ", ""}, body["goals"])
	assert.Equal(t, []any{"Magnesium", "Melatonin"}, body["recommendations"])
}

func TestRecommendJSONWithModel(t *testing.T) {
	rec := postJSON(newTestHandler().Recommend, `{"goals":["bone"],"use_gpt2":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"Vitamin D3"}, body["recommendations"])
	assert.Equal(t, "Consider magnesium before bed.", body["gpt2_response"])
	assert.Equal(t, []any{"What is your primary health goal?"}, body["questions_to_ask"])
}

func TestRecommendJSONNoMatch(t *testing.T) {
	rec := postJSON(newTestHandler().Recommend, `{"goals":["hair"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{recommend.NoMatchMessage}, decodeBody(t, rec)["recommendations"])
}

func TestRecommendJSONErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "malformed", body: `{"goals":`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "unknown field", body: `{"goals":["sleep"],"extra":1}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "goals not a list", body: `{"goals":"sleep"}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "missing goals", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "blank goals", body: `{"goals":["  "]}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "bad depth", body: `{"goals":["sleep"],"depth_level":"deep"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "invalid_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(newTestHandler().Recommend, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, rec)["code"])
		})
	}
}

func TestRecommendValidationDetails(t *testing.T) {
	rec := postJSON(newTestHandler().Recommend, `{"goals":[]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	details, ok := decodeBody(t, rec)["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "min", details["goals"])
}

func TestRecommendInternalError(t *testing.T) {
	h := NewRecommendHandler(failingService{err: errors.New("boom")}, zap.NewNop())
	rec := postJSON(h.Recommend, `{"goals":["sleep"]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "server_error", body["code"])
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRecommendForm(t *testing.T) {
	rec := postForm(newTestHandler().Recommend, url.Values{
		"goals":       {"sleep, immune"},
		"depth_level": {"precise"},
		"use_gpt2":    {"on"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<li>Vitamin D3</li>")
	assert.Contains(t, body, "<li>Magnesium</li>")
	assert.Contains(t, body, "<li>Melatonin</li>")
	assert.Contains(t, body, "<p>Consider magnesium before bed.</p>")
	assert.Contains(t, body, "<li>Any known supplement sensitivities or side effects?</li>")
	assert.Contains(t, body, `<option value="precise" selected>Precise</option>`)
	assert.Contains(t, body, `value="sleep, immune"`)
	assert.Contains(t, body, " checked")
}

func TestRecommendMultipartForm(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("goals", "sleep"))
	require.NoError(t, mw.WriteField("depth_level", "general"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/recommend", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newTestHandler().Recommend(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<li>Magnesium</li>")
	assert.Contains(t, body, "<li>Melatonin</li>")
	assert.Contains(t, body, `value="sleep"`)
}

func TestRecommendFormWithoutModel(t *testing.T) {
	rec := postForm(newTestHandler().Recommend, url.Values{"goals": {"immune"}})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<li>Vitamin D3</li>")
	assert.NotContains(t, body, "Supplement Advice")
	assert.Contains(t, body, "<li>What is your primary health goal?</li>")
}

func TestRecommendFormErrors(t *testing.T) {
	rec := postForm(newTestHandler().Recommend, url.Values{"goals": {" , "}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one goal is required")

	rec = postForm(newTestHandler().Recommend, url.Values{"goals": {"sleep"}, "depth_level": {"deep"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "depth_level must be one of")
}

func TestRecommendFormEscapesInput(t *testing.T) {
	rec := postForm(newTestHandler().Recommend, url.Values{"goals": {`<script>alert(1)</script>`}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
}

func TestCheckboxValue(t *testing.T) {
	for _, v := range []string{"on", "ON", "true", "1", "yes"} {
		assert.True(t, checkboxValue(v), v)
	}
	for _, v := range []string{"", "off", "false", "0", "maybe"} {
		assert.False(t, checkboxValue(v), v)
	}
}
