package recommend

import (
	"fmt"
	"strings"
)

// Depth selects which follow-up questions accompany a recommendation.
type Depth string

const (
	DepthGeneral  Depth = "general"
	DepthSpecific Depth = "specific"
	DepthPrecise  Depth = "precise"
)

var questionsByDepth = map[Depth][]string{
	DepthGeneral: {
		"What is your primary health goal?",
	},
	DepthSpecific: {
		"What specific health concerns do you want to target?",
		"Do you have any dietary restrictions?",
	},
	DepthPrecise: {
		"Do you have a specific health condition you're treating?",
		"How long are you willing to take supplements?",
		"Any known supplement sensitivities or side effects?",
	},
}

// ParseDepth normalises s. An empty value means DepthGeneral.
func ParseDepth(s string) (Depth, error) {
	d := Depth(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return DepthGeneral, nil
	}
	if _, ok := questionsByDepth[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDepth, s)
	}
	return d, nil
}

// Questions returns a copy of the fixed follow-up questions for d.
func Questions(d Depth) []string {
	qs := questionsByDepth[d]
	out := make([]string, len(qs))
	copy(out, qs)
	return out
}
