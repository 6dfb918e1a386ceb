package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwoolworth/doccoll"
)

const instrumentationName = "github.com/dwoolworth/doccoll"

// Tracing returns middleware that wraps every operation in a client span
// named "doccoll.<op>". A nil provider uses the global one.
func Tracing(tp trace.TracerProvider) doccoll.MiddlewareFunc {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(instrumentationName)

	return func(ctx context.Context, op *doccoll.OpInfo, next func(context.Context) error) error {
		ctx, span := tracer.Start(ctx, "doccoll."+string(op.Operation),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "mongodb"),
				attribute.String("db.collection.name", op.Collection),
				attribute.String("db.operation.name", string(op.Operation)),
				attribute.String("doccoll.model", op.ModelName),
			),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.Bool("doccoll.validation", errors.Is(err, doccoll.ErrValidation)))
		}
		return err
	}
}
