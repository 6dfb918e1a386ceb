package observe

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dwoolworth/doccoll"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics registers operation counters and latency histograms on reg and
// returns middleware that feeds them. A nil reg uses the default registerer.
func Metrics(reg prometheus.Registerer) (doccoll.MiddlewareFunc, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doccoll",
		Name:      "operations_total",
		Help:      "Collection operations by collection, operation and outcome.",
	}, []string{"collection", "op", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "doccoll",
		Name:      "operation_duration_seconds",
		Help:      "Latency of collection operations.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"collection", "op"})

	for _, c := range []prometheus.Collector{ops, latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return func(ctx context.Context, op *doccoll.OpInfo, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		latency.WithLabelValues(op.Collection, string(op.Operation)).Observe(time.Since(start).Seconds())
		ops.WithLabelValues(op.Collection, string(op.Operation), outcome(err)).Inc()
		return err
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, doccoll.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, doccoll.ErrValidation):
		return OutcomeInvalid
	}
	return OutcomeError
}
