package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/config"
	"github.com/driftlock/browsermux/pkg/response"
	"github.com/driftlock/browsermux/pkg/security/artifacts"
)

// stubPage is a minimal PageHandle for dispatcher-level tests.
type stubPage struct {
	mu         sync.Mutex
	url        string
	title      string
	content    string
	closed     bool
	closeFns   []func()
	consoleFns []func(browser.ConsoleMessage)
	netFns     []func(browser.NetworkNotification)
}

func (p *stubPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *stubPage) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *stubPage) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, nil
}

func (p *stubPage) BringToFront() error { return nil }

func (p *stubPage) Close() error {
	p.mu.Lock()
	p.closed = true
	fns := append([]func(){}, p.closeFns...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (p *stubPage) VideoPath() (string, error) { return "", nil }

func (p *stubPage) OnClose(fn func()) {
	p.mu.Lock()
	p.closeFns = append(p.closeFns, fn)
	p.mu.Unlock()
}

func (p *stubPage) OnConsole(fn func(browser.ConsoleMessage)) {
	p.mu.Lock()
	p.consoleFns = append(p.consoleFns, fn)
	p.mu.Unlock()
}

func (p *stubPage) OnRequestFinished(fn func(browser.NetworkNotification)) {
	p.mu.Lock()
	p.netFns = append(p.netFns, fn)
	p.mu.Unlock()
}

func (p *stubPage) emitConsole(msg browser.ConsoleMessage) {
	p.mu.Lock()
	fns := append([]func(browser.ConsoleMessage){}, p.consoleFns...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(msg)
	}
}

func (p *stubPage) emitRequest(n browser.NetworkNotification) {
	p.mu.Lock()
	fns := append([]func(browser.NetworkNotification){}, p.netFns...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(n)
	}
}

// stubContext is a minimal ContextHandle backed by stubPages.
type stubContext struct {
	mu    sync.Mutex
	pages []*stubPage
}

func (c *stubContext) NewPage(ctx context.Context) (browser.PageHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := &stubPage{
		url:     fmt.Sprintf("https://example.com/page-%d", len(c.pages)),
		title:   "Example",
		content: "<html><head><title>Example</title></head><body><h1>Hello</h1></body></html>",
	}
	c.pages = append(c.pages, page)
	return page, nil
}

func (c *stubContext) Pages() []browser.PageHandle { return nil }

func (c *stubContext) OnPage(fn func(browser.PageHandle)) {}

func (c *stubContext) SetRequestRules(rules *browser.RequestRules) error { return nil }

func (c *stubContext) StartTracing(name string) error { return nil }

func (c *stubContext) StopTracing() error { return nil }

func (c *stubContext) Close(ctx context.Context) error { return nil }

func (c *stubContext) lastPage() *stubPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pages) == 0 {
		return nil
	}
	return c.pages[len(c.pages)-1]
}

type toolEnv struct {
	registry   *browser.Registry
	dispatcher *Dispatcher
	context    *stubContext
}

func newToolEnv(t *testing.T) *toolEnv {
	t.Helper()
	env := &toolEnv{
		registry: browser.NewRegistry(0),
		context:  &stubContext{},
	}
	deps := browser.SessionDeps{
		Factory: browser.ContextFactoryFunc(func(ctx context.Context, info browser.ClientInfo) (browser.ContextHandle, error) {
			return env.context, nil
		}),
		Config: config.Default().Browser,
	}
	guard, err := artifacts.NewGuard(t.TempDir())
	require.NoError(t, err)
	env.dispatcher = NewDispatcher(env.registry, deps, response.BuilderOptions{})
	RegisterDefaults(env.dispatcher, env.registry, guard)
	return env
}

func textPayload(t *testing.T, blocks []response.Content) string {
	t.Helper()
	var parts []string
	for _, block := range blocks {
		if block.Kind == response.ContentText {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestDispatchUnknownTool(t *testing.T) {
	env := newToolEnv(t)
	_, err := env.dispatcher.Dispatch(context.Background(), "sess-1", "no_such_tool", nil)
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestDispatchCreatesSessionOnFirstUse(t *testing.T) {
	env := newToolEnv(t)
	require.Equal(t, 0, env.registry.Len())

	_, err := env.dispatcher.Dispatch(context.Background(), "sess-1", "browser_tabs", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, env.registry.Len())
}

func TestRegisterDefaultsToolNames(t *testing.T) {
	env := newToolEnv(t)
	assert.Equal(t, []string{
		"browser_close_session",
		"browser_configure",
		"browser_console",
		"browser_list_sessions",
		"browser_network",
		"browser_snapshot",
		"browser_tabs",
		"browser_video",
		"browser_webrtc",
	}, env.dispatcher.Names())
}

func TestTabsNewAndList(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	blocks, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_tabs", Arguments{"action": "new"})
	require.NoError(t, err)
	payload := textPayload(t, blocks)
	assert.Contains(t, payload, "Opened new tab (https://example.com/page-0)")
	assert.Contains(t, payload, "### Open tabs")
	assert.Contains(t, payload, "(current)")

	blocks, err = env.dispatcher.Dispatch(ctx, "sess-1", "browser_tabs", nil)
	require.NoError(t, err)
	assert.Contains(t, textPayload(t, blocks), "1 open tab(s)")
}

func TestTabsSelectOutOfRange(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	_, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_tabs", Arguments{"action": "new"})
	require.NoError(t, err)

	_, err = env.dispatcher.Dispatch(ctx, "sess-1", "browser_tabs", Arguments{"action": "select", "index": 7})
	require.ErrorIs(t, err, browser.ErrTabNotFound)
}

func TestTabsCloseCurrent(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	_, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_tabs", Arguments{"action": "new"})
	require.NoError(t, err)

	blocks, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_tabs", Arguments{"action": "close"})
	require.NoError(t, err)
	assert.Contains(t, textPayload(t, blocks), "Closed tab (https://example.com/page-0)")
}

func TestSnapshotToolIncludesPageState(t *testing.T) {
	env := newToolEnv(t)

	blocks, err := env.dispatcher.Dispatch(context.Background(), "sess-1", "browser_snapshot", nil)
	require.NoError(t, err)
	payload := textPayload(t, blocks)
	assert.Contains(t, payload, "### Page state")
	assert.Contains(t, payload, "Page URL: https://example.com/page-0")
	assert.Contains(t, payload, `- heading "Hello" [h1]`)
}

func TestConsoleToolRequiresTab(t *testing.T) {
	env := newToolEnv(t)
	_, err := env.dispatcher.Dispatch(context.Background(), "sess-1", "browser_console", nil)
	require.ErrorIs(t, err, browser.ErrNoActiveTab)
}

func TestConsoleToolPaginates(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	_, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_tabs", Arguments{"action": "new"})
	require.NoError(t, err)

	page := env.context.lastPage()
	require.NotNil(t, page)
	page.emitConsole(browser.ConsoleMessage{Type: "log", Text: "first"})
	page.emitConsole(browser.ConsoleMessage{Type: "error", Text: "second"})

	blocks, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_console", Arguments{"page_size": 1})
	require.NoError(t, err)
	payload := textPayload(t, blocks)
	assert.Contains(t, payload, "1 of 2 console message(s)")
	assert.Contains(t, payload, "- [log] first")
	assert.Contains(t, payload, "cursor=offset:1")

	blocks, err = env.dispatcher.Dispatch(ctx, "sess-1", "browser_console", Arguments{"cursor": "offset:1"})
	require.NoError(t, err)
	payload = textPayload(t, blocks)
	assert.Contains(t, payload, "- [error] second")
	assert.NotContains(t, payload, "cursor=")
}

func TestNetworkToolFormatsFailures(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	_, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_tabs", Arguments{"action": "new"})
	require.NoError(t, err)

	page := env.context.lastPage()
	require.NotNil(t, page)
	page.emitRequest(browser.NetworkNotification{Method: "GET", URL: "https://a.example/x", Status: 200})
	page.emitRequest(browser.NetworkNotification{Method: "POST", URL: "https://b.example/y", Failure: "net::ERR_FAILED"})

	blocks, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_network", nil)
	require.NoError(t, err)
	payload := textPayload(t, blocks)
	assert.Contains(t, payload, "- GET https://a.example/x => 200")
	assert.Contains(t, payload, "- POST https://b.example/y failed: net::ERR_FAILED")
}

func TestConfigureToolRejectsEmptyChanges(t *testing.T) {
	env := newToolEnv(t)
	_, err := env.dispatcher.Dispatch(context.Background(), "sess-1", "browser_configure", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration changes")
}

func TestConfigureToolUnknownDevice(t *testing.T) {
	env := newToolEnv(t)
	_, err := env.dispatcher.Dispatch(context.Background(), "sess-1", "browser_configure",
		Arguments{"device": "Nokia 3310"})
	require.ErrorIs(t, err, config.ErrUnknownDevice)
}

func TestConfigureToolAppliesViewport(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	blocks, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_configure",
		Arguments{"width": 800, "height": 600})
	require.NoError(t, err)
	assert.Contains(t, textPayload(t, blocks), "viewport=800x600")

	session, ok := env.registry.Get("sess-1")
	require.True(t, ok)
	cfg := session.Config()
	require.NotNil(t, cfg.Viewport)
	assert.Equal(t, 800, cfg.Viewport.Width)
	assert.Equal(t, 600, cfg.Viewport.Height)
}

func TestListSessionsMarksCaller(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	_, err := env.dispatcher.Dispatch(ctx, "sess-a", "browser_tabs", nil)
	require.NoError(t, err)

	blocks, err := env.dispatcher.Dispatch(ctx, "sess-b", "browser_list_sessions", nil)
	require.NoError(t, err)
	payload := textPayload(t, blocks)
	assert.Contains(t, payload, "2 of 2 active session(s)")
	assert.Contains(t, payload, "- sess-a")
	assert.Contains(t, payload, "- sess-b (this session)")
}

func TestCloseSessionRemovesCaller(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	blocks, err := env.dispatcher.Dispatch(ctx, "sess-1", "browser_close_session", nil)
	require.NoError(t, err)
	assert.Contains(t, textPayload(t, blocks), "Closed session sess-1")
	assert.Equal(t, 0, env.registry.Len())
}

func TestVideoToolRejectsEscapingDir(t *testing.T) {
	env := newToolEnv(t)

	_, err := env.dispatcher.Dispatch(context.Background(), "sess-1", "browser_video",
		Arguments{"action": "start", "dir": "../outside"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the artifact directory")
}

func TestVideoToolDefaultsToOutputDir(t *testing.T) {
	env := newToolEnv(t)

	blocks, err := env.dispatcher.Dispatch(context.Background(), "sess-1", "browser_video",
		Arguments{"action": "start"})
	require.NoError(t, err)
	assert.Contains(t, textPayload(t, blocks), "Video recording enabled")
}
