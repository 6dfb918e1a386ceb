// Package observe provides doccoll middleware for structured logging,
// OpenTelemetry tracing and Prometheus metrics.
//
//	coll, err := doccoll.New[Person](db, "people", doccoll.Options{
//	    Middleware: []doccoll.MiddlewareFunc{
//	        observe.Tracing(otel.GetTracerProvider()),
//	        observe.Logging(logger),
//	    },
//	})
package observe
