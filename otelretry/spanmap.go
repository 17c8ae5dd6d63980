package otelretry

import (
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/relaypoint/retry"
)

// spanMap associates a live RetryContext with its in-progress span.
// Unexported: an implementation detail of Listener's bookkeeping, kept
// in its own small file for the same reason the engine keeps its cache
// in cache.go — a map type with a narrow, purpose-built API rather than
// a bare sync.Map scattered through the listener logic.
type spanMap struct {
	mu sync.Mutex
	m  map[*retry.RetryContext]trace.Span
}

func newSpanMap() spanMap {
	return spanMap{m: make(map[*retry.RetryContext]trace.Span)}
}

func (s *spanMap) store(rc *retry.RetryContext, span trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[rc] = span
}

func (s *spanMap) load(rc *retry.RetryContext) (trace.Span, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	span, ok := s.m[rc]
	return span, ok
}

func (s *spanMap) delete(rc *retry.RetryContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, rc)
}
