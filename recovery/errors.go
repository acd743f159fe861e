package recovery

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// PreviewLimit caps the number of characters of raw and cleaned text kept on an UnparsablePayloadError.
const PreviewLimit = 2000

// ErrEmptyPayload is returned when the model produced no text at all.
var ErrEmptyPayload = errors.New("recovery: empty payload")

// UnparsablePayloadError is returned once every recovery strategy failed to produce valid JSON.
// The previews are for diagnostics only and never hold more than PreviewLimit characters.
type UnparsablePayloadError struct {
	RawPreview     string
	CleanedPreview string
	Err            error
}

func newUnparsable(raw, cleaned string, err error) *UnparsablePayloadError {
	return &UnparsablePayloadError{
		RawPreview:     preview(raw, PreviewLimit),
		CleanedPreview: preview(cleaned, PreviewLimit),
		Err:            err,
	}
}

func (e *UnparsablePayloadError) Error() string {
	return fmt.Sprintf("recovery: unparsable payload: %v", e.Err)
}

func (e *UnparsablePayloadError) Unwrap() error { return e.Err }

// IsUnparsable reports whether err carries an UnparsablePayloadError.
func IsUnparsable(err error) bool {
	var target *UnparsablePayloadError
	return errors.As(err, &target)
}

// preview truncates s to at most n runes without splitting a multi-byte character.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
