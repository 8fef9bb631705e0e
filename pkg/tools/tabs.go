package tools

import (
	"context"
	"fmt"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/response"
)

// TabsTool lists and manipulates the tabs of a session.
type TabsTool struct{}

// NewTabsTool creates a new tabs tool.
func NewTabsTool() *TabsTool {
	return &TabsTool{}
}

// Name returns the tool name.
func (t *TabsTool) Name() string {
	return "browser_tabs"
}

// Description returns the tool description.
func (t *TabsTool) Description() string {
	return "List, open, select, or close tabs in a browser session. " +
		"Actions: list (default), new, select (index), close (index, defaults to current)."
}

// ShapeResponse includes the open-tabs listing in every tabs response.
func (t *TabsTool) ShapeResponse(args Arguments, opts response.BuilderOptions) response.BuilderOptions {
	opts.IncludeTabs = true
	return opts
}

// Execute performs the requested tab action.
func (t *TabsTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	action := args.String("action")
	switch action {
	case "", "list":
		rb.AddResultf("Session %s has %d open tab(s)", session.ID(), len(session.Tabs()))
		return nil

	case "new":
		tab, err := session.NewTab(ctx)
		if err != nil {
			return fmt.Errorf("failed to open tab: %w", err)
		}
		rb.AddResultf("Opened new tab (%s)", tab.URL())
		return nil

	case "select":
		index, ok := args.Int("index")
		if !ok {
			return fmt.Errorf("select requires an index")
		}
		tab, err := session.SelectTab(ctx, index)
		if err != nil {
			return fmt.Errorf("failed to select tab %d: %w", index, err)
		}
		rb.AddResultf("Selected tab %d (%s)", index, tab.URL())
		return nil

	case "close":
		index, ok := args.Int("index")
		if !ok {
			// Current tab.
			index = -1
		}
		url, err := session.CloseTab(ctx, index)
		if err != nil {
			return fmt.Errorf("failed to close tab: %w", err)
		}
		rb.AddResultf("Closed tab (%s)", url)
		return nil

	default:
		return fmt.Errorf("unknown tab action %q", action)
	}
}
