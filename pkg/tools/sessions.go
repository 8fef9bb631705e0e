package tools

import (
	"context"
	"fmt"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/response"
)

// ListSessionsTool lists the session IDs known to the registry.
type ListSessionsTool struct {
	registry *browser.Registry
}

// NewListSessionsTool creates a new session listing tool.
func NewListSessionsTool(registry *browser.Registry) *ListSessionsTool {
	return &ListSessionsTool{registry: registry}
}

// Name returns the tool name.
func (t *ListSessionsTool) Name() string {
	return "browser_list_sessions"
}

// Description returns the tool description.
func (t *ListSessionsTool) Description() string {
	return "List the IDs of all active browser sessions."
}

// Execute renders one page of session IDs.
func (t *ListSessionsTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	page := response.Paginate(t.registry.ListIDs, func(id string) string {
		if id == session.ID() {
			return id + " (this session)"
		}
		return id
	}, args.String("cursor"), response.PaginateOptions{})

	writePagedListing(rb, "active session(s)", page.Rendered, page.Total, page.NextCursor)
	return nil
}

// CloseSessionTool disposes a session and releases its browser resources.
type CloseSessionTool struct {
	registry *browser.Registry
}

// NewCloseSessionTool creates a new session closing tool.
func NewCloseSessionTool(registry *browser.Registry) *CloseSessionTool {
	return &CloseSessionTool{registry: registry}
}

// Name returns the tool name.
func (t *CloseSessionTool) Name() string {
	return "browser_close_session"
}

// Description returns the tool description.
func (t *CloseSessionTool) Description() string {
	return "Close a browser session and release its browser context. " +
		"Closes the calling session unless an id argument names another one."
}

// Execute removes the target session from the registry.
func (t *CloseSessionTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	id := args.String("id")
	if id == "" {
		id = session.ID()
	}
	if err := t.registry.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to close session %s: %w", id, err)
	}
	rb.AddResultf("Closed session %s", id)
	return nil
}
