package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlock/browsermux/pkg/config"
)

func TestTabBuffersConsoleMessages(t *testing.T) {
	page := newFakePage("https://example.com")
	tab := newTab(page)

	page.emitConsole("log", "hello")
	page.emitConsole("error", "boom")

	msgs := tab.ConsoleMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "log", msgs[0].Type)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "error", msgs[1].Type)
}

func TestTabBuffersNetworkNotifications(t *testing.T) {
	page := newFakePage("https://example.com")
	tab := newTab(page)

	page.emitRequest("https://example.com/api", 200)
	page.emitRequest("https://example.com/missing", 404)

	notes := tab.NetworkNotifications()
	require.Len(t, notes, 2)
	assert.Equal(t, 200, notes[0].Status)
	assert.Equal(t, 404, notes[1].Status)
}

func TestTabBuffersWebRTCRecords(t *testing.T) {
	tab := newTab(newFakePage("https://example.com"))

	tab.RecordWebRTC(WebRTCRecord{ConnectionID: "pc-1", State: "connected", Time: time.Now()})

	recs := tab.WebRTCRecords()
	require.Len(t, recs, 1)
	assert.Equal(t, "pc-1", recs[0].ConnectionID)
}

func TestBuffersClearedOnTabClose(t *testing.T) {
	session := newTestSession(t, &fakeFactory{}, config.BrowserConfig{})
	ctx := context.Background()

	tab, err := session.NewTab(ctx)
	require.NoError(t, err)
	_, err = session.NewTab(ctx)
	require.NoError(t, err)

	tab.page.(*fakePage).emitConsole("log", "before close")
	require.NotEmpty(t, tab.ConsoleMessages())

	_, err = session.CloseTab(ctx, 0)
	require.NoError(t, err)

	assert.Empty(t, tab.ConsoleMessages())
	assert.Empty(t, tab.NetworkNotifications())
}

func TestReturnedBuffersAreCopies(t *testing.T) {
	page := newFakePage("https://example.com")
	tab := newTab(page)
	page.emitConsole("log", "one")

	msgs := tab.ConsoleMessages()
	msgs[0].Text = "mutated"

	assert.Equal(t, "one", tab.ConsoleMessages()[0].Text)
}

func TestCaptureSnapshotFullThenDifferential(t *testing.T) {
	page := newFakePage("https://example.com/doc")
	page.setContent(`<html><body><h1>Title</h1><p>one</p></body></html>`)
	tab := newTab(page)
	ctx := context.Background()

	full, err := tab.CaptureSnapshot(ctx, false)
	require.NoError(t, err)
	assert.Contains(t, full, "Page URL: https://example.com/doc")
	assert.Contains(t, full, `heading "Title" [h1]`)

	// Unchanged page: differential snapshot is empty.
	delta, err := tab.CaptureSnapshot(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, delta)

	// Changed page: differential snapshot carries only the delta.
	page.setContent(`<html><body><h1>Title</h1><p>two</p></body></html>`)
	delta, err = tab.CaptureSnapshot(ctx, true)
	require.NoError(t, err)
	assert.Contains(t, delta, "+- text: two")
	assert.Contains(t, delta, "-- text: one")
	assert.NotContains(t, delta, "Page URL:")
}

func TestFirstDifferentialCaptureIsFull(t *testing.T) {
	page := newFakePage("https://example.com")
	page.setContent(`<html><body><p>content</p></body></html>`)
	tab := newTab(page)

	snap, err := tab.CaptureSnapshot(context.Background(), true)
	require.NoError(t, err)
	assert.Contains(t, snap, "Page URL:")
	assert.Contains(t, snap, "text: content")
}
