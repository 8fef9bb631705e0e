// Package tools is the handler boundary of the multiplexer. Each tool
// receives a resolved session and a fresh response builder; the dispatcher
// owns session resolution and payload serialization so handlers stay small.
package tools

import (
	"context"
	"strconv"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/response"
)

// Tool represents one capability exposed over the session multiplexer.
type Tool interface {
	// Name returns the unique identifier for this tool (e.g. "browser_tabs").
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// Execute runs the tool against the given session, appending its output
	// to the response builder. Returning an error aborts the response.
	Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error
}

// ResponseShaper is an optional interface for tools that adjust the
// response builder options of their own invocations, for example to request
// a page snapshot or the open-tabs listing.
type ResponseShaper interface {
	ShapeResponse(args Arguments, opts response.BuilderOptions) response.BuilderOptions
}

// Arguments carries a tool invocation's decoded parameters.
type Arguments map[string]any

// String returns the named argument as a string, or empty when absent.
func (a Arguments) String(key string) string {
	if v, ok := a[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int returns the named argument as an int. Numeric strings and JSON
// float64 numbers are accepted.
func (a Arguments) Int(key string) (int, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// Bool returns the named argument as a bool, or false when absent or not
// boolean-shaped.
func (a Arguments) Bool(key string) bool {
	v, ok := a[key]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	}
	return false
}
