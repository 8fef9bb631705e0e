package browser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/driftlock/browsermux/pkg/config"
	"github.com/driftlock/browsermux/pkg/env"
)

// Driver owns the playwright runtime and one launched browser. It is both
// the default ContextFactory and the RecordingContextFactory for sessions.
type Driver struct {
	pw           *playwright.Playwright
	browser      playwright.Browser
	cfg          config.BrowserConfig
	introspector *env.Introspector
}

// NewDriver installs and starts playwright, then launches a browser using
// the given configuration, falling back to the environment introspector's
// recommendations for anything the config leaves open.
func NewDriver(cfg config.BrowserConfig, introspector *env.Introspector) (*Driver, error) {
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	recommended := introspector.RecommendedBrowserOptions()
	headless := recommended.Headless
	if cfg.Headless != nil {
		headless = *cfg.Headless
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     recommended.Args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Driver{
		pw:           pw,
		browser:      browser,
		cfg:          cfg,
		introspector: introspector,
	}, nil
}

// NewContext implements ContextFactory.
func (d *Driver) NewContext(ctx context.Context, info ClientInfo) (ContextHandle, error) {
	return d.newContext(nil)
}

// NewRecordingContext implements RecordingContextFactory: an isolated
// context with video capture enabled.
func (d *Driver) NewRecordingContext(ctx context.Context, video VideoConfig) (ContextHandle, error) {
	return d.newContext(&video)
}

func (d *Driver) newContext(video *VideoConfig) (ContextHandle, error) {
	opts := d.contextOptions(video)
	browserCtx, err := d.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	return newPWContext(browserCtx, d.cfg.TraceDir), nil
}

func (d *Driver) contextOptions(video *VideoConfig) playwright.BrowserNewContextOptions {
	cfg := d.cfg
	opts := playwright.BrowserNewContextOptions{}

	if cfg.Viewport != nil {
		opts.Viewport = &playwright.Size{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = playwright.String(cfg.UserAgent)
	}
	if cfg.Locale != "" {
		opts.Locale = playwright.String(cfg.Locale)
	}
	if cfg.TimezoneID != "" {
		opts.TimezoneId = playwright.String(cfg.TimezoneID)
	}
	switch cfg.ColorScheme {
	case "dark":
		opts.ColorScheme = playwright.ColorSchemeDark
	case "light":
		opts.ColorScheme = playwright.ColorSchemeLight
	case "no-preference":
		opts.ColorScheme = playwright.ColorSchemeNoPreference
	}
	if cfg.Geolocation != nil {
		opts.Geolocation = &playwright.Geolocation{
			Latitude:  cfg.Geolocation.Latitude,
			Longitude: cfg.Geolocation.Longitude,
		}
		if cfg.Geolocation.Accuracy > 0 {
			opts.Geolocation.Accuracy = playwright.Float(cfg.Geolocation.Accuracy)
		}
	}
	if len(cfg.Permissions) > 0 {
		opts.Permissions = cfg.Permissions
	}
	if video != nil {
		record := &playwright.RecordVideo{Dir: video.Dir}
		if video.Width > 0 && video.Height > 0 {
			record.Size = &playwright.Size{Width: video.Width, Height: video.Height}
		}
		opts.RecordVideo = record
	}
	return opts
}

// Close shuts the browser and the playwright runtime down.
func (d *Driver) Close() error {
	if err := d.browser.Close(); err != nil {
		_ = d.pw.Stop()
		return fmt.Errorf("failed to close browser: %w", err)
	}
	if err := d.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// pwContext adapts a playwright browser context to ContextHandle. Page
// wrappers are kept in a map so every playwright page maps to exactly one
// PageHandle regardless of whether it surfaced via NewPage or an event.
type pwContext struct {
	ctx      playwright.BrowserContext
	traceDir string

	mu        sync.Mutex
	pages     map[playwright.Page]*pwPage
	handlers  []func(PageHandle)
	tracePath string
}

func newPWContext(ctx playwright.BrowserContext, traceDir string) *pwContext {
	c := &pwContext{
		ctx:      ctx,
		traceDir: traceDir,
		pages:    make(map[playwright.Page]*pwPage),
	}
	ctx.OnPage(func(page playwright.Page) {
		handle := c.wrap(page)
		c.mu.Lock()
		handlers := append([]func(PageHandle){}, c.handlers...)
		c.mu.Unlock()
		for _, fn := range handlers {
			fn(handle)
		}
	})
	return c
}

func (c *pwContext) wrap(page playwright.Page) *pwPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if handle, ok := c.pages[page]; ok {
		return handle
	}
	handle := newPWPage(page)
	c.pages[page] = handle
	return handle
}

func (c *pwContext) NewPage(ctx context.Context) (PageHandle, error) {
	page, err := c.ctx.NewPage()
	if err != nil {
		return nil, err
	}
	return c.wrap(page), nil
}

func (c *pwContext) Pages() []PageHandle {
	pages := c.ctx.Pages()
	handles := make([]PageHandle, 0, len(pages))
	for _, page := range pages {
		handles = append(handles, c.wrap(page))
	}
	return handles
}

func (c *pwContext) OnPage(fn func(PageHandle)) {
	c.mu.Lock()
	c.handlers = append(c.handlers, fn)
	c.mu.Unlock()
}

func (c *pwContext) SetRequestRules(rules *RequestRules) error {
	return c.ctx.Route("**/*", func(route playwright.Route) {
		if rules.Allows(route.Request().URL()) {
			_ = route.Continue()
			return
		}
		_ = route.Abort()
	})
}

func (c *pwContext) StartTracing(name string) error {
	err := c.ctx.Tracing().Start(playwright.TracingStartOptions{
		Screenshots: playwright.Bool(false),
		Snapshots:   playwright.Bool(true),
		Sources:     playwright.Bool(false),
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.tracePath = filepath.Join(c.traceDir, name+".zip")
	c.mu.Unlock()
	return nil
}

func (c *pwContext) StopTracing() error {
	c.mu.Lock()
	path := c.tracePath
	c.tracePath = ""
	c.mu.Unlock()
	if path == "" {
		return c.ctx.Tracing().Stop()
	}
	return c.ctx.Tracing().Stop(path)
}

func (c *pwContext) Close(ctx context.Context) error {
	return c.ctx.Close()
}

// pwPage adapts one playwright page to PageHandle.
type pwPage struct {
	page playwright.Page
}

func newPWPage(page playwright.Page) *pwPage {
	return &pwPage{page: page}
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Title() (string, error) {
	return p.page.Title()
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

func (p *pwPage) BringToFront() error {
	return p.page.BringToFront()
}

func (p *pwPage) Close() error {
	return p.page.Close()
}

func (p *pwPage) VideoPath() (string, error) {
	video := p.page.Video()
	if video == nil {
		return "", nil
	}
	return video.Path()
}

func (p *pwPage) OnClose(fn func()) {
	p.page.OnClose(func(playwright.Page) {
		fn()
	})
}

func (p *pwPage) OnConsole(fn func(ConsoleMessage)) {
	p.page.OnConsole(func(msg playwright.ConsoleMessage) {
		fn(ConsoleMessage{
			Type: msg.Type(),
			Text: msg.Text(),
			Time: time.Now(),
		})
	})
}

func (p *pwPage) OnRequestFinished(fn func(NetworkNotification)) {
	p.page.OnRequestFinished(func(req playwright.Request) {
		note := NetworkNotification{
			Method: req.Method(),
			URL:    req.URL(),
			Time:   time.Now(),
		}
		if resp, err := req.Response(); err == nil && resp != nil {
			note.Status = resp.Status()
		}
		fn(note)
	})
	p.page.OnRequestFailed(func(req playwright.Request) {
		note := NetworkNotification{
			Method: req.Method(),
			URL:    req.URL(),
			Time:   time.Now(),
		}
		if err := req.Failure(); err != nil {
			note.Failure = err.Error()
		}
		fn(note)
	})
}
