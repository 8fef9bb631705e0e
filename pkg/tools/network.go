package tools

import (
	"context"
	"fmt"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/response"
)

// NetworkTool returns the buffered network notifications of the current
// tab, paginated.
type NetworkTool struct{}

// NewNetworkTool creates a new network tool.
func NewNetworkTool() *NetworkTool {
	return &NetworkTool{}
}

// Name returns the tool name.
func (t *NetworkTool) Name() string {
	return "browser_network"
}

// Description returns the tool description.
func (t *NetworkTool) Description() string {
	return "Read the network requests captured on the current tab. " +
		"Pass the cursor from a previous call to fetch the next page."
}

// Execute renders one page of network notifications.
func (t *NetworkTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	tab, err := session.CurrentTabOrErr()
	if err != nil {
		return fmt.Errorf("failed to read network activity: %w", err)
	}

	opts := response.PaginateOptions{}
	if size, ok := args.Int("page_size"); ok {
		opts.PageSize = size
	}
	page := response.Paginate(tab.NetworkNotifications, formatNetworkNotification, args.String("cursor"), opts)

	writePagedListing(rb, "network request(s)", page.Rendered, page.Total, page.NextCursor)
	return nil
}

func formatNetworkNotification(n browser.NetworkNotification) string {
	if n.Failure != "" {
		return fmt.Sprintf("%s %s failed: %s", n.Method, n.URL, n.Failure)
	}
	return fmt.Sprintf("%s %s => %d", n.Method, n.URL, n.Status)
}

// WebRTCTool returns the WebRTC connection records of the current tab.
type WebRTCTool struct{}

// NewWebRTCTool creates a new WebRTC tool.
func NewWebRTCTool() *WebRTCTool {
	return &WebRTCTool{}
}

// Name returns the tool name.
func (t *WebRTCTool) Name() string {
	return "browser_webrtc"
}

// Description returns the tool description.
func (t *WebRTCTool) Description() string {
	return "Read the WebRTC connection records captured on the current tab."
}

// Execute renders one page of WebRTC records.
func (t *WebRTCTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	tab, err := session.CurrentTabOrErr()
	if err != nil {
		return fmt.Errorf("failed to read WebRTC records: %w", err)
	}

	page := response.Paginate(tab.WebRTCRecords, formatWebRTCRecord, args.String("cursor"), response.PaginateOptions{})
	writePagedListing(rb, "WebRTC record(s)", page.Rendered, page.Total, page.NextCursor)
	return nil
}

func formatWebRTCRecord(rec browser.WebRTCRecord) string {
	return fmt.Sprintf("%s %s %s", rec.ConnectionID, rec.State, rec.Stats)
}
