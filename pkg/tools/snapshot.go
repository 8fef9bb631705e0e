package tools

import (
	"context"
	"fmt"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/response"
)

// SnapshotTool captures the current tab's page state. The page snapshot is
// attached by the response builder; the tool only makes sure a tab exists.
type SnapshotTool struct{}

// NewSnapshotTool creates a new snapshot tool.
func NewSnapshotTool() *SnapshotTool {
	return &SnapshotTool{}
}

// Name returns the tool name.
func (t *SnapshotTool) Name() string {
	return "browser_snapshot"
}

// Description returns the tool description.
func (t *SnapshotTool) Description() string {
	return "Capture an accessibility-style outline of the current page. " +
		"Set differential=true to receive only the changes since the previous snapshot."
}

// ShapeResponse requests the snapshot and optional differential mode.
func (t *SnapshotTool) ShapeResponse(args Arguments, opts response.BuilderOptions) response.BuilderOptions {
	opts.IncludeSnapshot = true
	opts.Differential = args.Bool("differential")
	if tokens, ok := args.Int("max_tokens"); ok && tokens > 0 {
		opts.SnapshotTokens = tokens
	}
	return opts
}

// Execute ensures the session has a current tab to snapshot.
func (t *SnapshotTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	if _, err := session.EnsureTab(ctx); err != nil {
		return fmt.Errorf("failed to prepare tab for snapshot: %w", err)
	}
	rb.AddResult("Captured page snapshot")
	return nil
}
