package trace

import "context"

type tracerKey struct{}

type spanKey struct{}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx; nil means Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// SpanContext is the innermost open span and the unit it works on.
type SpanContext struct {
	SpanID uint64
	Unit   string
}

// CurrentSpan returns the span context of ctx; zero when there is none.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(spanKey{}).(SpanContext)
	return sc
}

// ForUnit attributes every event started under the returned context to the
// unit at path.
func ForUnit(ctx context.Context, path string) context.Context {
	sc := CurrentSpan(ctx)
	sc.Unit = path
	return context.WithValue(ctx, spanKey{}, sc)
}

// Start opens a span under the span carried by ctx and returns a context
// carrying the new one. When the scope is filtered out ctx is returned as is.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	parent := CurrentSpan(ctx)
	span := begin(FromContext(ctx), scope, name, parent)
	if span.ID() == 0 {
		return ctx, span
	}
	return context.WithValue(ctx, spanKey{}, SpanContext{SpanID: span.id, Unit: parent.Unit}), span
}

// Mark records an instant event under the current span of ctx.
func Mark(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	sc := CurrentSpan(ctx)
	t.Emit(&Event{
		Time:     now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: sc.SpanID,
		Unit:     sc.Unit,
		Name:     name,
		Detail:   detail,
	})
}
