// Package config resolves CLI connection and logging settings from flags and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
)

// Environment variables consulted when a flag is left empty.
const (
	EnvURI      = "MONGODB_URI"
	EnvDatabase = "MONGODB_DB"
	EnvUser     = "MONGO_URI_DB_USERNAME"
	EnvPassword = "MONGO_URI_DB_PASSWORD"
	EnvCluster  = "MONGO_URI_CLUSTER"
)

const (
	DefaultURI      = "mongodb://localhost:27017"
	DefaultDatabase = "doccoll"
	DefaultTimeout  = 10 * time.Second
)

// Config holds everything the CLI needs to reach the store and log.
type Config struct {
	URI       string
	Database  string
	Timeout   time.Duration
	LogLevel  string
	LogFormat string
	Trace     bool
}

// Resolve fills empty fields from the environment (via getenv) and then from
// defaults, and validates the result. When no URI is given but the Atlas
// variables are, an SRV URI is built from them.
func (c Config) Resolve(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if c.URI == "" {
		c.URI = getenv(EnvURI)
	}
	if c.URI == "" {
		uri, err := AtlasURI(getenv(EnvUser), getenv(EnvPassword), getenv(EnvCluster))
		if err != nil {
			return c, err
		}
		c.URI = uri
	}
	if c.URI == "" {
		c.URI = DefaultURI
	}
	if c.Database == "" {
		c.Database = getenv(EnvDatabase)
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}

	if !strings.HasPrefix(c.URI, "mongodb://") && !strings.HasPrefix(c.URI, "mongodb+srv://") {
		return c, fmt.Errorf("config: uri must start with mongodb:// or mongodb+srv://")
	}
	if c.Timeout < 0 {
		return c, fmt.Errorf("config: timeout must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return c, err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return c, fmt.Errorf("config: log format %q is not text or json", c.LogFormat)
	}
	return c, nil
}

// AtlasURI builds a mongodb+srv URI from credentials and a cluster host. It
// returns "" when none of the three are set, and an error when only some are.
func AtlasURI(user, password, cluster string) (string, error) {
	if user == "" && password == "" && cluster == "" {
		return "", nil
	}
	if user == "" || password == "" || cluster == "" {
		return "", errors.New("config: " + EnvUser + ", " + EnvPassword + " and " + EnvCluster + " must be set together")
	}

	u := url.URL{
		Scheme: "mongodb+srv",
		User:   url.UserPassword(user, password),
		Host:   cluster,
		Path:   "/",
	}
	q := url.Values{}
	q.Set("retryWrites", "true")
	q.Set("w", "majority")
	q.Set("appName", "Cluster0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Redacted returns the URI with any password masked, for display.
func (c Config) Redacted() string {
	u, err := url.Parse(c.URI)
	if err != nil {
		return "<invalid uri>"
	}
	return u.Redacted()
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
	return l, nil
}

// NewLogger builds the CLI logger writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
