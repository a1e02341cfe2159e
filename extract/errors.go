package extract

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a fatal extraction error.
type Kind string

// Fatal error kinds. Each maps to an HTTP-equivalent status via
// [Error.HTTPStatus].
const (
	KindBadInput    Kind = "bad_input"
	KindNotFound    Kind = "not_found"
	KindNoMaster    Kind = "no_master"
	KindEmptyResult Kind = "empty_result"
	KindParse       Kind = "parse"
	KindInternal    Kind = "internal"
)

// Error is a fatal extraction failure. Extractions fail atomically: no
// partial CSV accompanies an Error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus suggests the HTTP status an API layer should answer with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindBadInput, KindNoMaster, KindEmptyResult, KindParse:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// KindOf extracts the [Kind] of err. Errors outside the taxonomy report
// [KindInternal]; a nil error reports the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WarningKind classifies a non-fatal extraction condition.
type WarningKind string

// Non-fatal warning kinds. Warnings are logged, collected on the [Result],
// and produce empty cells rather than aborting the extraction.
const (
	WarnMissingMasterPayload    WarningKind = "missing_master_payload"
	WarnMissingReferencePayload WarningKind = "missing_reference_payload"
	WarnJoinKeyMissing          WarningKind = "join_key_missing"
	WarnJoinMultiplicity        WarningKind = "join_multiplicity"
	WarnDateParse               WarningKind = "date_parse"
	WarnUnknownAttribute        WarningKind = "unknown_attribute"
)

// Warning is one non-fatal condition observed during an extraction.
type Warning struct {
	Kind    WarningKind
	Message string
}

func warningf(kind WarningKind, format string, args ...any) Warning {
	return Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
