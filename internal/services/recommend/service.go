package recommend

import (
	"context"
	"errors"
	"strings"

	"github.com/soufiangit/supplementer.ai/internal/generator"
	"github.com/soufiangit/supplementer.ai/internal/history"
	"go.uber.org/zap"
)

var (
	// ErrNoGoals is returned when no non-blank goal was supplied.
	ErrNoGoals = errors.New("at least one goal is required")
	// ErrInvalidDepth is returned for depth levels outside general|specific|precise.
	ErrInvalidDepth = errors.New("invalid depth level")
)

// generationUnavailable is surfaced to clients instead of provider error text.
const generationUnavailable = "language model unavailable"

// Matcher filters the catalog by goals.
type Matcher interface {
	Match(goals []string) []string
}

// GenerationCache stores model output per prompt.
type GenerationCache interface {
	Get(ctx context.Context, prompt string) (string, bool, error)
	Set(ctx context.Context, prompt, text string) error
}

// Recorder persists served requests.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry)
}

// Observer receives counters for served requests and model calls.
type Observer interface {
	ObserveRecommendation(matched bool)
	ObserveGeneration(provider, result string)
}

// Input carries one recommendation request.
type Input struct {
	Goals      []string
	DepthLevel string
	UseModel   bool
	IPAddress  string
	UserAgent  string
}

// Result is the outcome of a recommendation request.
type Result struct {
	// Goals echoes the goals as submitted. Matching uses the trimmed,
	// non-blank subset.
	Goals           []string
	Depth           Depth
	Recommendations []string
	Matched         bool
	// Generated is nil unless the model was requested and produced text.
	Generated       *string
	GenerationError string
	Questions       []string
}

// Service runs the recommendation flow.
type Service struct {
	catalog   Matcher
	generator generator.Generator
	cache     GenerationCache
	recorder  Recorder
	observer  Observer
	logger    *zap.Logger
}

// Dependencies aggregates constructor inputs. Cache, Recorder and Observer are
// optional.
type Dependencies struct {
	Catalog   Matcher
	Generator generator.Generator
	Cache     GenerationCache
	Recorder  Recorder
	Observer  Observer
	Logger    *zap.Logger
}

// New initialises the recommendation service.
func New(deps Dependencies) *Service {
	gen := deps.Generator
	if gen == nil {
		gen = generator.Disabled{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:   deps.Catalog,
		generator: gen,
		cache:     deps.Cache,
		recorder:  deps.Recorder,
		observer:  deps.Observer,
		logger:    logger,
	}
}

// Recommend matches goals against the catalog and, when requested, asks the
// language model to elaborate. Model failures never fail the request.
func (s *Service) Recommend(ctx context.Context, in Input) (*Result, error) {
	goals := normaliseGoals(in.Goals)
	if len(goals) == 0 {
		return nil, ErrNoGoals
	}
	depth, err := ParseDepth(in.DepthLevel)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Goals:     append([]string(nil), in.Goals...),
		Depth:     depth,
		Questions: Questions(depth),
	}

	result.Recommendations = s.catalog.Match(goals)
	result.Matched = len(result.Recommendations) > 0
	if !result.Matched {
		result.Recommendations = []string{NoMatchMessage}
	}

	if in.UseModel {
		prompt := BuildPrompt(goals, result.Recommendations, depth)
		text, err := s.generate(ctx, prompt)
		if err != nil {
			s.logger.Warn("language model generation failed",
				zap.String("provider", s.generator.Name()),
				zap.Error(err),
			)
			result.GenerationError = generationUnavailable
		} else {
			result.Generated = &text
		}
	}

	if s.observer != nil {
		s.observer.ObserveRecommendation(result.Matched)
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, history.Entry{
			Goals:           goals,
			DepthLevel:      string(depth),
			UsedModel:       in.UseModel,
			Matched:         result.Matched,
			Recommendations: result.Recommendations,
			IPAddress:       in.IPAddress,
			UserAgent:       in.UserAgent,
		})
	}

	return result, nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	provider := s.generator.Name()

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, prompt)
		switch {
		case err != nil:
			s.logger.Warn("generation cache lookup failed", zap.Error(err))
		case ok:
			s.observe(provider, "cached")
			return cached, nil
		}
	}

	raw, err := s.generator.Generate(ctx, prompt)
	if err == nil {
		raw = generator.Sanitize(raw)
		if raw == "" {
			err = generator.ErrEmptyOutput
		}
	}
	if err != nil {
		s.observe(provider, "error")
		return "", err
	}
	s.observe(provider, "ok")

	if s.cache != nil {
		if err := s.cache.Set(ctx, prompt, raw); err != nil {
			s.logger.Warn("generation cache store failed", zap.Error(err))
		}
	}
	return raw, nil
}

func (s *Service) observe(provider, result string) {
	if s.observer != nil {
		s.observer.ObserveGeneration(provider, result)
	}
}

func normaliseGoals(goals []string) []string {
	out := make([]string, 0, len(goals))
	for _, g := range goals {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
