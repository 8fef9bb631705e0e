package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
)

// Tab wraps one driver page and the telemetry captured from it: console
// messages, network notifications, and WebRTC connection records. Buffers
// live exactly as long as the tab and are cleared on close.
type Tab struct {
	page PageHandle

	mu           sync.Mutex
	console      []ConsoleMessage
	network      []NetworkNotification
	webrtc       []WebRTCRecord
	lastSnapshot string
}

func newTab(page PageHandle) *Tab {
	t := &Tab{page: page}
	page.OnConsole(t.addConsole)
	page.OnRequestFinished(t.addNetwork)
	return t
}

// Page exposes the underlying driver page for tool handlers.
func (t *Tab) Page() PageHandle {
	return t.page
}

// URL returns the page's current URL.
func (t *Tab) URL() string {
	return t.page.URL()
}

// Title returns the page's current title, empty on driver failure.
func (t *Tab) Title() string {
	title, err := t.page.Title()
	if err != nil {
		return ""
	}
	return title
}

func (t *Tab) addConsole(msg ConsoleMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.console = append(t.console, msg)
}

func (t *Tab) addNetwork(n NetworkNotification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.network = append(t.network, n)
}

// RecordWebRTC appends a WebRTC connection record for this tab.
func (t *Tab) RecordWebRTC(rec WebRTCRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.webrtc = append(t.webrtc, rec)
}

// ConsoleMessages returns a copy of the captured console buffer.
func (t *Tab) ConsoleMessages() []ConsoleMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ConsoleMessage(nil), t.console...)
}

// NetworkNotifications returns a copy of the captured network buffer.
func (t *Tab) NetworkNotifications() []NetworkNotification {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]NetworkNotification(nil), t.network...)
}

// WebRTCRecords returns a copy of the captured WebRTC records.
func (t *Tab) WebRTCRecords() []WebRTCRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]WebRTCRecord(nil), t.webrtc...)
}

// clearBuffers drops all captured telemetry. Called on tab close.
func (t *Tab) clearBuffers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.console = nil
	t.network = nil
	t.webrtc = nil
	t.lastSnapshot = ""
}

// CaptureSnapshot renders the page outline. With differential set, only the
// delta since this tab's previous snapshot is returned; the first capture of
// a tab is always full. The full outline is remembered either way so the
// next differential call diffs against current state.
func (t *Tab) CaptureSnapshot(ctx context.Context, differential bool) (string, error) {
	content, err := t.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}

	outline, err := renderOutline(content, t.page.URL(), t.Title())
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	previous := t.lastSnapshot
	t.lastSnapshot = outline
	t.mu.Unlock()

	if !differential || previous == "" {
		return outline, nil
	}
	if previous == outline {
		return "", nil
	}
	return snapshotDelta(previous, outline)
}

// snapshotDelta renders a unified diff between two snapshots.
func snapshotDelta(previous, current string) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to diff snapshots: %w", err)
	}
	return strings.TrimSuffix(diff, "\n"), nil
}
