package model

import (
	"errors"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrInvalidInput is matched by every *InputError
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidBundle           = goerr.New("invalid artifact bundle")
	ErrUnsupportedBundleFormat = goerr.New("unsupported artifact bundle format")

	// ErrNotFound is returned by repositories and artifact stores for absent entries
	ErrNotFound = goerr.New("not found")
)

// Context keys for error values
const (
	FieldKey         = "field"
	FormatVersionKey = "format_version"
	VersionKey       = "version"
)

// InputError describes the request fields that were missing or malformed.
// It is safe to return verbatim to the caller.
type InputError struct {
	Missing []string
	Invalid []string
}

func (e *InputError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing field(s): "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid field(s): "+strings.Join(e.Invalid, ", ")+" (must be a finite non-negative number or non-empty string)")
	}
	if len(parts) == 0 {
		return ErrInvalidInput.Error()
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports ErrInvalidInput as the matching sentinel
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// RecordError attaches the position of a batch record to its validation error
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return "records[" + strconv.Itoa(e.Index) + "]: " + e.Err.Error()
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func (e *InputError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}
