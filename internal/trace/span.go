package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// nextSeq numbers events in the order tracers accept them.
func nextSeq() uint64 { return seqCounter.Add(1) }

// Span is an open begin event; End closes it. The zero-ID span returned
// for filtered scopes ignores every call.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

func begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		id:      spanCounter.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(&Event{Time: s.started, Kind: KindSpanBegin, Scope: scope, SpanID: s.id, ParentID: parent, Name: name})
	return s
}

// End emits the end event, with detail naming an outcome ("" on success),
// and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	now := time.Now()
	s.tracer.Emit(&Event{
		Time:     now,
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	return now.Sub(s.started)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event inside ctx's span.
func Point(ctx context.Context, scope Scope, name, detail string) {
	b := bound(ctx)
	if !b.tracer.Enabled() || !b.tracer.Level().ShouldEmit(scope) {
		return
	}
	b.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: b.parent,
		Name:     name,
		Detail:   detail,
	})
}
