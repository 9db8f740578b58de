package trace

import "context"

// binding is what a context carries for tracing: the tracer and the span
// that new spans and points nest under.
type binding struct {
	tracer Tracer
	parent uint64
}

type bindingKey struct{}

func bound(ctx context.Context) binding {
	if ctx != nil {
		if b, ok := ctx.Value(bindingKey{}).(binding); ok {
			return b
		}
	}
	return binding{tracer: Nop}
}

// WithTracer binds t to ctx. Spans begun under the result are roots.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, bindingKey{}, binding{tracer: t})
}

// Parent is the ID of the span ctx runs in; 0 at the top.
func Parent(ctx context.Context) uint64 {
	return bound(ctx).parent
}

// Start begins a span under ctx's span and returns a context running in it.
// A disabled tracer yields ctx unchanged.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	b := bound(ctx)
	span := begin(b.tracer, scope, name, b.parent)
	if span.ID() == 0 {
		return ctx, span
	}
	b.parent = span.ID()
	return context.WithValue(ctx, bindingKey{}, b), span
}
