// Package jsonx provides strict JSON decoding helpers for the input
// document loader (internal/tree.Decode).
package jsonx

import (
	"bytes"
	"errors"
	"io"

	json "github.com/goccy/go-json"
)

// ErrEmptyInput is returned when the source contains no data at all.
var ErrEmptyInput = errors.New("jsonx: empty input")

// ErrTrailingData is returned when more than one JSON value is present.
var ErrTrailingData = errors.New("jsonx: trailing data after JSON value")

// DecodeObject reads and strictly decodes exactly one JSON object from src
// into dst: unknown fields are rejected, and any bytes following the first
// value (other than whitespace) are rejected as ErrTrailingData.
func DecodeObject[T any](src io.Reader, dst *T) error {
	raw, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return ErrEmptyInput
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.Decode(new(struct{})) != io.EOF {
		return ErrTrailingData
	}
	return nil
}
