package statesight

import (
	"errors"
	"fmt"

	"github.com/penwyp/go-state-sight/internal/data/sink"
)

var (
	// ErrClosed is returned when a closed object or class is used.
	ErrClosed = errors.New("statesight: closed")

	// ErrEmptyAttribute is returned by Set for an empty attribute name, which
	// is reserved for the initial-state record.
	ErrEmptyAttribute = errors.New("statesight: attribute name is empty")
)

// ConfigurationError reports an invalid class configuration. It is returned
// by NewClass and never later.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("statesight: invalid configuration: %s %s", e.Field, e.Reason)
}

// SinkError reports a failed write to the log file. The in-memory log is left
// intact when it is returned. It unwraps to the underlying I/O error.
type SinkError = sink.Error
