package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/logging"
	"github.com/driftlock/browsermux/pkg/response"
)

// ErrUnknownTool is returned when a dispatch names a tool that was never
// registered.
var ErrUnknownTool = errors.New("unknown tool")

// Dispatcher routes tool invocations: it resolves the target session through
// the registry, hands the tool a fresh response builder, and serializes the
// builder into the content payload.
type Dispatcher struct {
	registry *browser.Registry
	deps     browser.SessionDeps
	opts     response.BuilderOptions

	mu    sync.RWMutex
	tools map[string]Tool
}

// NewDispatcher creates a dispatcher over the given registry. deps are the
// session dependencies used when a dispatch creates a session on first use;
// opts are the baseline builder options, which individual tools may reshape.
func NewDispatcher(registry *browser.Registry, deps browser.SessionDeps, opts response.BuilderOptions) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		deps:     deps,
		opts:     opts,
		tools:    make(map[string]Tool),
	}
}

// Register adds tools to the dispatcher. Registering a name twice replaces
// the earlier tool.
func (d *Dispatcher) Register(tools ...Tool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, tool := range tools {
		d.tools[tool.Name()] = tool
	}
}

// Tool looks up a registered tool by name.
func (d *Dispatcher) Tool(name string) (Tool, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tool, ok := d.tools[name]
	return tool, ok
}

// Names returns the registered tool names in sorted order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named tool against the session identified by sessionID,
// creating the session if it does not exist yet. Each invocation gets its
// own builder, so snapshots and truncation never leak between calls.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID, name string, args Arguments) ([]response.Content, error) {
	tool, ok := d.Tool(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	session, err := d.registry.GetOrCreate(sessionID, d.deps)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session %s: %w", sessionID, err)
	}

	opts := d.opts
	if shaper, ok := tool.(ResponseShaper); ok {
		opts = shaper.ShapeResponse(args, opts)
	}
	rb := response.NewBuilder(session, opts)

	logging.For("tools").Debug("dispatch", "tool", name, "session", session.ID())
	if err := tool.Execute(ctx, session, rb, args); err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return rb.Serialize(ctx), nil
}
