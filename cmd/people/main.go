package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/dwoolworth/doccoll"
	"github.com/dwoolworth/doccoll/internal/config"
	"github.com/dwoolworth/doccoll/observe"
	"github.com/dwoolworth/doccoll/people"
)

var (
	flags config.Config
	cfg   config.Config
)

var rootCmd = &cobra.Command{
	Use:           "people",
	Short:         "people - manage Person documents in MongoDB",
	Long:          "Create, find, edit and remove Person documents through a typed doccoll collection.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := flags.Resolve(os.Getenv)
		if err != nil {
			return err
		}
		cfg = resolved
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.URI, "uri", "", "MongoDB connection URI (env "+config.EnvURI+")")
	pf.StringVar(&flags.Database, "db", "", "database name (env "+config.EnvDatabase+")")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "per-command timeout")
	pf.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.LogFormat, "log-format", "", "text or json")
	pf.BoolVar(&flags.Trace, "trace", false, "print OpenTelemetry spans to stderr")

	rootCmd.AddCommand(createCmd, findCmd, addFoodCmd, setAgeCmd, removeCmd,
		queryCmd, statsCmd, indexesCmd, inspectCmd, versionCmd)
}

// withService connects, builds the people service with logging (and tracing
// when asked for) and runs fn. The connection is closed afterwards.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *people.Service) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	mw := []doccoll.MiddlewareFunc{observe.Logging(logger)}

	if cfg.Trace {
		shutdown, err := observe.InitTracing(ctx, observe.TraceConfig{
			ServiceName:    "people",
			ServiceVersion: version,
			Writer:         cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()
		mw = append([]doccoll.MiddlewareFunc{observe.Tracing(otel.GetTracerProvider())}, mw...)
	}

	logger.Debug("connecting", "uri", cfg.Redacted(), "db", cfg.Database)
	db, err := doccoll.Connect(ctx, cfg.URI, cfg.Database, doccoll.ConnectOptions{
		AppName: "people-cli",
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = doccoll.Disconnect(context.WithoutCancel(ctx), db) }()

	svc, err := people.NewService(db, doccoll.Options{Middleware: mw})
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
