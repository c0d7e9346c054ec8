package generator

import (
	"context"
	"time"
)

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every Generate call on next by d.
func WithTimeout(next Generator, d time.Duration) Generator {
	return &timeoutGenerator{next: next, timeout: d}
}

func (g *timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.next.Generate(ctx, prompt)
}

func (g *timeoutGenerator) Name() string {
	return g.next.Name()
}
