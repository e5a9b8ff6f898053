// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates caller-supplied input failed validation.
var ErrValidation = errors.New("validation failed")

// ErrConfig indicates unusable service configuration (empty model table,
// invalid budget). Fatal at startup or first use, never retried.
var ErrConfig = errors.New("configuration error")
