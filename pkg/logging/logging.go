// Package logging provides the process-wide structured logger, grounded
// on cuemby-warren/pkg/log: a package-level configurable zerolog.Logger
// plus component-scoped child loggers, adapted from that package's
// cluster-node vocabulary (WithNodeID/WithServiceID/WithTaskID) to this
// module's own (WithBranch/WithHash/WithURI).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, configured by Init.
var Logger zerolog.Logger

// Level is a configured minimum severity.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration (spec §9's ambient logging layer;
// set from the CLI's --log-level and --log-json flags).
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init (re)configures the global Logger. Safe to call more than once;
// the CLI calls it once at startup from parsed flags.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent returns a child logger tagged with the package/subsystem
// emitting the log line (e.g. "graph", "view", "slice").
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithBranch returns a child logger tagged with a branch tag name.
func WithBranch(tag string) zerolog.Logger {
	return Logger.With().Str("branch", tag).Logger()
}

// WithHash returns a child logger tagged with a content or commit hash,
// hex-encoded.
func WithHash(hash string) zerolog.Logger {
	return Logger.With().Str("hash", hash).Logger()
}

// WithURI returns a child logger tagged with a remote URI (spec §4.8
// Sync).
func WithURI(uri string) zerolog.Logger {
	return Logger.With().Str("uri", uri).Logger()
}
