package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrEmptyText indicates blank input handed to an embedder.
	ErrEmptyText = errors.New("text to embed is empty")

	// ErrEmptyEmbedding indicates the provider answered with no vector.
	ErrEmptyEmbedding = errors.New("embedding result is empty")

	// ErrDimensionMismatch indicates a vector whose size differs from the collection's.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrMalformedRecord indicates a chunk record line that could not be parsed.
	ErrMalformedRecord = errors.New("malformed chunk record")

	// ErrCollection indicates an unexpected outcome while provisioning a collection.
	ErrCollection = errors.New("collection provisioning failed")

	// ErrProviderStatus indicates a non-success status from an external service.
	ErrProviderStatus = errors.New("external service returned an error status")

	// ErrInvalidConfig indicates invalid configuration or options.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// StatusError carries the status and body of a failed call to an external service.
type StatusError struct {
	Service string
	Op      string
	Status  string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s failed: %s", e.Service, e.Op, e.Status)
	}
	return fmt.Sprintf("%s %s failed: %s %s", e.Service, e.Op, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrProviderStatus }

func formatScalar(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
