package embedding

import (
	"context"
	"sync"
)

// LazyEngine wraps an Engine behind a single-winner lazy initializer.
// The embedding model load is expensive and process-wide, so every
// caller shares one instance built on first use.
type LazyEngine struct {
	cfg    Config
	once   sync.Once
	engine Engine
	err    error
}

// NewLazyEngine returns a LazyEngine that defers construction of the
// underlying Engine until the first Embed/EmbedBatch call.
func NewLazyEngine(cfg Config) *LazyEngine {
	return &LazyEngine{cfg: cfg}
}

func (l *LazyEngine) get() (Engine, error) {
	l.once.Do(func() {
		l.engine, l.err = New(l.cfg)
	})
	return l.engine, l.err
}

func (l *LazyEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := l.get()
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

func (l *LazyEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.get()
	if err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}

func (l *LazyEngine) Dimensions() int { return Dimensions }

func (l *LazyEngine) Name() string {
	e, err := l.get()
	if err != nil {
		return "uninitialized"
	}
	return e.Name()
}

// HealthCheck reports whether the underlying engine can be constructed
// and is reachable. It initializes the engine if no earlier call has.
func (l *LazyEngine) HealthCheck(ctx context.Context) error {
	e, err := l.get()
	if err != nil {
		return err
	}
	if hc, ok := e.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
