package tracing

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"

	"github.com/customeros/mailchecker/internal/logger"
)

const (
	SpanTagComponent = "component"
	SpanTagRunId     = "run-id"
	SpanTagSessionId = "session-id"
	SpanTagMode      = "mode"
	SpanTagMailbox   = "mailbox"
)

const (
	SpanTagComponentSession  = "session"
	SpanTagComponentMonitor  = "monitor"
	SpanTagComponentNotifier = "notifier"
)

func StartTracerSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, operationName)
}

func TraceErr(span opentracing.Span, err error, fields ...log.Field) {
	if span == nil || err == nil {
		return
	}
	ext.LogError(span, err, fields...)
}

func ExtractTextMapCarrier(spanCtx opentracing.SpanContext) opentracing.TextMapCarrier {
	carrier := make(opentracing.TextMapCarrier)
	// the no-op tracer leaves the carrier empty
	_ = opentracing.GlobalTracer().Inject(spanCtx, opentracing.TextMap, carrier)
	return carrier
}

func LogObjectAsJson(span opentracing.Span, name string, obj any) {
	if obj == nil {
		span.LogFields(log.String(name, "nil"))
		return
	}
	objJson, err := json.Marshal(obj)
	if err == nil {
		span.LogFields(log.String(name, string(objJson)))
	} else {
		span.LogFields(log.Object(name, obj))
	}
}

func TagComponentSession(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentSession)
}

func TagComponentMonitor(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentMonitor)
}

func TagComponentNotifier(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentNotifier)
}

func TagSession(span opentracing.Span, sessionId string) {
	if sessionId != "" {
		span.SetTag(SpanTagSessionId, sessionId)
	}
}

func TagRun(span opentracing.Span, runId string) {
	if runId != "" {
		span.SetTag(SpanTagRunId, runId)
	}
}

// RecoverAndLogToJaeger must be deferred directly by the function it guards.
func RecoverAndLogToJaeger(appLogger logger.Logger) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan("panic-recovery")
		defer span.Finish()

		stackTrace := string(debug.Stack())
		span.LogKV(
			"event", "error",
			"error.object", r,
			"stack", stackTrace,
		)
		span.SetTag("error", true)

		appLogger.Errorf("Recovered from panic: %v\nStack trace:\n%s", r, stackTrace)
	}
}
