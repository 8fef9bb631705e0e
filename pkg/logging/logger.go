// Package logging provides structured component loggers for browsermux.
// Each component gets a prefixed logger sharing one process-wide sink so
// interleaved session activity stays attributable.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu   sync.Mutex
	root *log.Logger
)

// Options configures the process-wide log sink.
type Options struct {
	// Level is the minimum level emitted ("debug", "info", "warn", "error").
	Level string

	// Writer receives all log output. Defaults to stderr.
	Writer io.Writer
}

// Init configures the root logger. Safe to call more than once; later calls
// replace the sink, and loggers handed out earlier keep working because they
// derive from the root at call time.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	switch opts.Level {
	case "debug":
		l.SetLevel(log.DebugLevel)
	case "warn":
		l.SetLevel(log.WarnLevel)
	case "error":
		l.SetLevel(log.ErrorLevel)
	default:
		l.SetLevel(log.InfoLevel)
	}

	root = l
}

// For returns a logger scoped to the named component. Initializes the root
// with defaults if Init was never called.
func For(component string) *log.Logger {
	mu.Lock()
	if root == nil {
		mu.Unlock()
		Init(Options{})
		mu.Lock()
	}
	l := root
	mu.Unlock()
	return l.WithPrefix(component)
}
