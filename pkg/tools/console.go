package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/response"
)

// ConsoleTool returns the buffered console messages of the current tab,
// paginated so noisy pages cannot flood a response.
type ConsoleTool struct{}

// NewConsoleTool creates a new console tool.
func NewConsoleTool() *ConsoleTool {
	return &ConsoleTool{}
}

// Name returns the tool name.
func (t *ConsoleTool) Name() string {
	return "browser_console"
}

// Description returns the tool description.
func (t *ConsoleTool) Description() string {
	return "Read the console messages captured on the current tab. " +
		"Pass the cursor from a previous call to fetch the next page."
}

// Execute renders one page of console messages.
func (t *ConsoleTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	tab, err := session.CurrentTabOrErr()
	if err != nil {
		return fmt.Errorf("failed to read console: %w", err)
	}

	opts := response.PaginateOptions{}
	if size, ok := args.Int("page_size"); ok {
		opts.PageSize = size
	}
	page := response.Paginate(tab.ConsoleMessages, formatConsoleMessage, args.String("cursor"), opts)

	writePagedListing(rb, "console message(s)", page.Rendered, page.Total, page.NextCursor)
	return nil
}

func formatConsoleMessage(msg browser.ConsoleMessage) string {
	return fmt.Sprintf("[%s] %s", msg.Type, msg.Text)
}

// writePagedListing appends one page of rendered lines plus the paging
// footer shared by the listing tools.
func writePagedListing(rb *response.Builder, noun string, rendered []string, total int, nextCursor string) {
	if total == 0 {
		rb.AddResultf("No %s captured", noun)
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d %s:", len(rendered), total, noun)
	for _, line := range rendered {
		sb.WriteString("\n- ")
		sb.WriteString(line)
	}
	if nextCursor != "" {
		fmt.Fprintf(&sb, "\nMore available, pass cursor=%s to continue", nextCursor)
	}
	rb.AddResult(sb.String())
}
