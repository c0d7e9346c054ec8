package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/soufiangit/supplementer.ai/internal/services/recommend"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// RecommendService describes the recommendation capabilities used by HTTP handlers.
type RecommendService interface {
	Recommend(ctx context.Context, in recommend.Input) (*recommend.Result, error)
}

// RecommendHandler serves the JSON API and the HTML form for recommendations.
type RecommendHandler struct {
	service  RecommendService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRecommendHandler constructs a handler.
func NewRecommendHandler(service RecommendService, logger *zap.Logger) *RecommendHandler {
	return &RecommendHandler{
		service:  service,
		validate: newValidator(),
		logger:   logger,
	}
}

// Index serves the form page to browsers and a status document to everyone else.
func (h *RecommendHandler) Index(w http.ResponseWriter, r *http.Request) {
	if !wantsHTML(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	h.renderPage(w, http.StatusOK, pageData{Depths: depthOptions(recommend.DepthGeneral)})
}

// Recommend matches goals against the catalog. Form posts get the page back,
// everything else is treated as JSON.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if isFormPost(r) {
		h.recommendForm(w, r)
		return
	}

	var req recommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request validation failed", validationDetails(err))
		return
	}

	result, err := h.service.Recommend(r.Context(), recommend.Input{
		Goals:      req.Goals,
		DepthLevel: req.DepthLevel,
		UseModel:   req.UseModel,
		IPAddress:  clientIP(r),
		UserAgent:  userAgent(r),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecommendResponse(result))
}

func (h *RecommendHandler) recommendForm(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.renderPage(w, http.StatusBadRequest, pageData{
			Error:  "could not read the submitted form",
			Depths: depthOptions(recommend.DepthGeneral),
		})
		return
	}

	goalsText := r.PostFormValue("goals")
	depthText := r.PostFormValue("depth_level")
	useModel := checkboxValue(r.PostFormValue("use_gpt2"))
	data := pageData{
		GoalsText: goalsText,
		UseModel:  useModel,
		Depths:    depthOptions(recommend.Depth(strings.ToLower(depthText))),
	}

	result, err := h.service.Recommend(r.Context(), recommend.Input{
		Goals:      strings.Split(goalsText, ","),
		DepthLevel: depthText,
		UseModel:   useModel,
		IPAddress:  clientIP(r),
		UserAgent:  userAgent(r),
	})
	if err != nil {
		status, _, message := h.classify(r, err)
		data.Error = message
		h.renderPage(w, status, data)
		return
	}

	data.Submitted = true
	data.Recommendations = result.Recommendations
	data.Questions = result.Questions
	data.GenerationError = result.GenerationError
	if result.Generated != nil {
		data.Generated = *result.Generated
	}
	h.renderPage(w, http.StatusOK, data)
}

func (h *RecommendHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := h.classify(r, err)
	var details map[string]any
	if status == http.StatusInternalServerError {
		details = map[string]any{"request_id": middleware.GetReqID(r.Context())}
	}
	writeError(w, status, code, message, details)
}

func (h *RecommendHandler) classify(r *http.Request, err error) (int, string, string) {
	switch {
	case errors.Is(err, recommend.ErrNoGoals):
		return http.StatusBadRequest, "invalid_request", "at least one goal is required"
	case errors.Is(err, recommend.ErrInvalidDepth):
		return http.StatusUnprocessableEntity, "invalid_depth", "depth_level must be one of general, specific, precise"
	default:
		reqID := middleware.GetReqID(r.Context())
		h.logger.Error("recommend handler error", zap.String("request_id", reqID), zap.Error(err))
		return http.StatusInternalServerError, "server_error", "internal server error"
	}
}

func (h *RecommendHandler) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
	}
}

type recommendRequest struct {
	Goals      []string `json:"goals" validate:"required,min=1,max=50,dive,max=200"`
	DepthLevel string   `json:"depth_level" validate:"max=32"`
	UseModel   bool     `json:"use_gpt2"`
	// sent by the bundled web client; never used or logged
	APIKey string `json:"api_key"`
}

type recommendResponse struct {
	Message         string   `json:"message"`
	Goals           []string `json:"goals"`
	Recommendations []string `json:"recommendations"`
	Generated       *string  `json:"gpt2_response"`
	GenerationError string   `json:"generation_error,omitempty"`
	Questions       []string `json:"questions_to_ask"`
}

func toRecommendResponse(result *recommend.Result) recommendResponse {
	return recommendResponse{
		Message:         "ok",
		Goals:           result.Goals,
		Recommendations: result.Recommendations,
		Generated:       result.Generated,
		GenerationError: result.GenerationError,
		Questions:       result.Questions,
	}
}

type depthOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	GoalsText       string
	UseModel        bool
	Depths          []depthOption
	Error           string
	Submitted       bool
	Recommendations []string
	Generated       string
	GenerationError string
	Questions       []string
}

func depthOptions(selected recommend.Depth) []depthOption {
	depths := []recommend.Depth{recommend.DepthGeneral, recommend.DepthSpecific, recommend.DepthPrecise}
	opts := make([]depthOption, 0, len(depths))
	for _, d := range depths {
		opts = append(opts, depthOption{
			Value:    string(d),
			Label:    strings.ToUpper(string(d[:1])) + string(d[1:]),
			Selected: d == selected,
		})
	}
	return opts
}

func checkboxValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationDetails(err error) map[string]any {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
