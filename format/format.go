// Package format normalizes raw cell values according to the type and
// format metadata declared on catalog attributes.
//
// Today only date attributes are actively reformatted: values are parsed
// with a permissive grammar and re-rendered deterministically in the
// attribute's declared format. Every other combination passes through
// trimmed but otherwise unchanged.
package format

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unitab-io/unitab/catalog"
)

// ErrUnparsableDate indicates a value that matched none of the accepted
// date input grammars. Formatting treats this as non-fatal: the raw
// (trimmed) value is kept.
var ErrUnparsableDate = errors.New("unparsable date")

// dateInputLayouts are the accepted input grammars, tried in order:
// DD-MON-YYYY, M/D/YYYY, YYYY-MM-DD, M-D-YYYY. Month names match
// case-insensitively, and single-digit layouts accept padded digits too.
var dateInputLayouts = []string{
	"2-Jan-2006",
	"1/2/2006",
	"2006-01-02",
	"1-2-2006",
}

// ParseDate parses a date value using the permissive input grammar. No time
// zones and no time-of-day components are recognized.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
}

// renderLayouts maps recognized (upper-cased) format tokens to Go layouts.
var renderLayouts = map[string]string{
	"DD/MM/YYYY": "02/01/2006",
	"MM/DD/YYYY": "01/02/2006",
	"YYYY-MM-DD": "2006-01-02",
	"MM-DD-YYYY": "01-02-2006",
	"DD-MM-YYYY": "02-01-2006",
	"M/D/YYYY":   "1/2/2006",
	"D/M/YYYY":   "2/1/2006",
}

// fallbackLayout is used for format tokens outside the recognized set.
const fallbackLayout = "01/02/2006"

// RenderDate renders t in the layout named by the attribute's format token.
// Tokens match case-insensitively; unrecognized tokens fall back to
// MM/DD/YYYY.
func RenderDate(t time.Time, format string) string {
	layout, ok := renderLayouts[strings.ToUpper(format)]
	if !ok {
		layout = fallbackLayout
	}

	return t.Format(layout)
}

// Value normalizes a raw cell value according to the attribute's declared
// data type and format:
//
//   - empty or whitespace-only values become the empty string;
//   - without both a data type and a format, the trimmed value passes
//     through unchanged;
//   - date attributes are parsed with [ParseDate] and rendered with
//     [RenderDate];
//   - all other data types pass through unchanged.
//
// The returned string is always usable. A non-nil error reports a non-fatal
// condition (a date that matched no input grammar); callers log it and keep
// the returned value.
func Value(raw string, attr catalog.Attribute) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", nil
	}

	if attr.DataType == catalog.TypeUnspecified || attr.Format == "" {
		return v, nil
	}

	if attr.DataType != catalog.TypeDate {
		return v, nil
	}

	t, err := ParseDate(v)
	if err != nil {
		return v, fmt.Errorf("attribute %q: %w", attr.Name, err)
	}

	return RenderDate(t, attr.Format), nil
}
