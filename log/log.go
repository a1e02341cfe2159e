// Package log builds [log/slog] handlers from CLI-friendly level and
// format strings, and fans log output out to live subscribers.
//
// Libraries in this repository accept a [*slog.Logger] through functional
// options; only binaries construct handlers, using [Config] to wire the
// flags.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects the log output encoding.
type Format string

// Accepted log formats. [FormatAuto] resolves to [FormatText] when the
// output is a terminal and [FormatJSON] otherwise.
const (
	FormatAuto   Format = "auto"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
	FormatText   Format = "text"
)

var (
	// ErrUnknownLevel indicates an unrecognized log level string.
	ErrUnknownLevel = errors.New("unknown log level")
	// ErrUnknownFormat indicates an unrecognized log format string.
	ErrUnknownFormat = errors.New("unknown log format")
)

// ParseLevel parses a log level string, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// ParseFormat parses a log format string, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatJSON, FormatLogfmt, FormatText:
		return f, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// LevelStrings returns the accepted level strings, for flag help and
// completions.
func LevelStrings() []string {
	return []string{"debug", "info", "warn", "error"}
}

// FormatStrings returns the accepted format strings, for flag help and
// completions.
func FormatStrings() []string {
	return []string{string(FormatAuto), string(FormatJSON), string(FormatLogfmt), string(FormatText)}
}

// NewHandler creates a [slog.Handler] writing to w with the given level and
// format. [FormatAuto] picks text when w is a terminal, JSON otherwise;
// [FormatText] is the terse human-readable form, while JSON and logfmt
// carry source locations for machine consumption.
func NewHandler(w io.Writer, level slog.Level, format Format) slog.Handler {
	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatText
		}
	}

	switch format {
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: level})
	case FormatLogfmt:
		return slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: true, Level: level})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
}

// NewHandlerFromStrings creates a [slog.Handler] from unparsed level and
// format strings.
func NewHandlerFromStrings(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	return NewHandler(w, lvl, f), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
