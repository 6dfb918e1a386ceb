package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwoolworth/doccoll"
)

var (
	findOp   = &doccoll.OpInfo{Operation: doccoll.OpFind, Collection: "people", ModelName: "Person"}
	insertOp = &doccoll.OpInfo{Operation: doccoll.OpInsertOne, Collection: "people", ModelName: "Person"}

	succeed = func(context.Context) error { return nil }
	invalid = func(context.Context) error {
		return doccoll.ValidationErrors{{Field: "name", Message: "field is required"}}
	}
	broken = func(context.Context) error {
		return &doccoll.StoreError{Op: doccoll.OpFind, Collection: "people", Err: errors.New("connection reset")}
	}
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestLogging_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mw := Logging(logger)
	ctx := context.Background()

	require.NoError(t, mw(ctx, findOp, succeed))
	assert.Error(t, mw(ctx, insertOp, invalid))
	assert.Error(t, mw(ctx, findOp, broken))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "operation completed", lines[0]["msg"])
	assert.Equal(t, "find", lines[0]["op"])
	assert.Equal(t, "people", lines[0]["collection"])
	assert.Equal(t, "Person", lines[0]["model"])
	assert.Contains(t, lines[0], "duration")
	assert.NotContains(t, lines[0], "error")

	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "operation rejected", lines[1]["msg"])
	assert.Contains(t, lines[1]["error"], "field is required")

	assert.Equal(t, "ERROR", lines[2]["level"])
	assert.Equal(t, "operation failed", lines[2]["msg"])
	assert.Contains(t, lines[2]["error"], "connection reset")
}

func TestLogging_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	mw := Logging(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	require.NoError(t, mw(context.Background(), findOp, succeed))
	assert.Zero(t, buf.Len())
}

func TestLogging_ReturnsInnerError(t *testing.T) {
	mw := Logging(slog.New(slog.DiscardHandler))
	err := mw(context.Background(), findOp, broken)
	var se *doccoll.StoreError
	assert.ErrorAs(t, err, &se)
}

func TestTracing_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	mw := Tracing(tp)
	ctx := context.Background()

	var inner trace.SpanContext
	require.NoError(t, mw(ctx, findOp, func(ctx context.Context) error {
		inner = trace.SpanContextFromContext(ctx)
		return nil
	}))
	assert.Error(t, mw(ctx, insertOp, invalid))
	assert.Error(t, mw(ctx, findOp, broken))

	spans := sr.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "doccoll.find", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, inner.SpanID(), spans[0].SpanContext().SpanID(), "next runs inside the span")
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	attrs := attribute.NewSet(spans[0].Attributes()...)
	v, found := attrs.Value("db.collection.name")
	require.True(t, found)
	assert.Equal(t, "people", v.AsString())
	v, _ = attrs.Value("db.system")
	assert.Equal(t, "mongodb", v.AsString())

	assert.Equal(t, "doccoll.insert_one", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	rejected := attribute.NewSet(spans[1].Attributes()...)
	v, found = rejected.Value("doccoll.validation")
	require.True(t, found)
	assert.True(t, v.AsBool())
	assert.Len(t, spans[1].Events(), 1, "error recorded")

	failed := attribute.NewSet(spans[2].Attributes()...)
	v, found = failed.Value("doccoll.validation")
	require.True(t, found)
	assert.False(t, v.AsBool())
}

func TestMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	mw, err := Metrics(reg)
	require.NoError(t, err)
	ctx := context.Background()

	_ = mw(ctx, findOp, succeed)
	_ = mw(ctx, findOp, succeed)
	_ = mw(ctx, insertOp, invalid)
	_ = mw(ctx, findOp, broken)
	_ = mw(ctx, findOp, func(context.Context) error { return doccoll.ErrNotFound })

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{"doccoll_operations_total", "doccoll_operation_duration_seconds"}, names)

	expected := `
# HELP doccoll_operations_total Collection operations by collection, operation and outcome.
# TYPE doccoll_operations_total counter
doccoll_operations_total{collection="people",op="find",outcome="error"} 1
doccoll_operations_total{collection="people",op="find",outcome="not_found"} 1
doccoll_operations_total{collection="people",op="find",outcome="ok"} 2
doccoll_operations_total{collection="people",op="insert_one",outcome="invalid"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "doccoll_operations_total"))

	n, err := testutil.GatherAndCount(reg, "doccoll_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_Outcomes(t *testing.T) {
	assert.Equal(t, OutcomeOK, outcome(nil))
	assert.Equal(t, OutcomeNotFound, outcome(doccoll.ErrNotFound))
	assert.Equal(t, OutcomeInvalid, outcome(doccoll.ValidationError{Field: "x"}))
	assert.Equal(t, OutcomeError, outcome(errors.New("boom")))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := Metrics(reg)
	require.NoError(t, err)
	_, err = Metrics(reg)
	assert.Error(t, err)
}

func TestInitTracing_WritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TraceConfig{ServiceName: "people-test", Writer: &buf})
	require.NoError(t, err)

	mw := Tracing(nil)
	require.NoError(t, mw(context.Background(), findOp, succeed))
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "doccoll.find")
	assert.Contains(t, buf.String(), "people-test")
}
