package irrigation

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidRange is returned when an edit would leave a window with start >= end.
	ErrInvalidRange = errors.New("invalid range")
	// ErrOverlap is returned when a window conflicts with a sibling window of the same schedule.
	ErrOverlap = errors.New("this time period overlaps with another irrigation window")

	ErrWindowIndex  = errors.New("window index out of range")
	ErrHourRange    = errors.New("hour must be between 0 and 23")
	ErrInvalidField = errors.New("unknown window field")
)

// ValidationError collects field-level problems found in a schedule submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}
