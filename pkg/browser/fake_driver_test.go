package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// fakePage implements PageHandle for tests and lets tests drive page events.
type fakePage struct {
	mu         sync.Mutex
	url        string
	title      string
	content    string
	closed     bool
	frontErr   error
	videoPath  string
	videoErr   error
	closeFns   []func()
	consoleFns []func(ConsoleMessage)
	netFns     []func(NetworkNotification)
}

func newFakePage(url string) *fakePage {
	return &fakePage{url: url, content: "<html><body></body></html>"}
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *fakePage) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, nil
}

func (p *fakePage) setContent(content string) {
	p.mu.Lock()
	p.content = content
	p.mu.Unlock()
}

func (p *fakePage) BringToFront() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frontErr
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("page already closed")
	}
	p.closed = true
	fns := append([]func(){}, p.closeFns...)
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// markClosed simulates a page that died without its close event being
// delivered.
func (p *fakePage) markClosed() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakePage) VideoPath() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.videoPath, p.videoErr
}

func (p *fakePage) OnClose(fn func()) {
	p.mu.Lock()
	p.closeFns = append(p.closeFns, fn)
	p.mu.Unlock()
}

func (p *fakePage) OnConsole(fn func(ConsoleMessage)) {
	p.mu.Lock()
	p.consoleFns = append(p.consoleFns, fn)
	p.mu.Unlock()
}

func (p *fakePage) OnRequestFinished(fn func(NetworkNotification)) {
	p.mu.Lock()
	p.netFns = append(p.netFns, fn)
	p.mu.Unlock()
}

func (p *fakePage) emitConsole(msgType, text string) {
	p.mu.Lock()
	fns := append([]func(ConsoleMessage){}, p.consoleFns...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ConsoleMessage{Type: msgType, Text: text, Time: time.Now()})
	}
}

func (p *fakePage) emitRequest(url string, status int) {
	p.mu.Lock()
	fns := append([]func(NetworkNotification){}, p.netFns...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(NetworkNotification{Method: "GET", URL: url, Status: status, Time: time.Now()})
	}
}

// fakeContext implements ContextHandle. NewPage fires the page-created
// callbacks synchronously, like the adapter does for driver events.
type fakeContext struct {
	mu           sync.Mutex
	pages        []*fakePage
	pageFns      []func(PageHandle)
	rules        *RequestRules
	closed       bool
	closeCount   int
	closeErr     error
	closeBlock   chan struct{}
	events       []string
	traceStarted bool
	nextPage     int
}

func newFakeContext() *fakeContext {
	return &fakeContext{}
}

func (c *fakeContext) NewPage(ctx context.Context) (PageHandle, error) {
	c.mu.Lock()
	c.nextPage++
	page := newFakePage(fmt.Sprintf("https://example.com/page-%d", c.nextPage))
	c.pages = append(c.pages, page)
	fns := append([]func(PageHandle){}, c.pageFns...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(page)
	}
	return page, nil
}

func (c *fakeContext) Pages() []PageHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	handles := make([]PageHandle, 0, len(c.pages))
	for _, page := range c.pages {
		handles = append(handles, page)
	}
	return handles
}

func (c *fakeContext) OnPage(fn func(PageHandle)) {
	c.mu.Lock()
	c.pageFns = append(c.pageFns, fn)
	c.mu.Unlock()
}

// seedPage adds a pre-existing page, as if the driver opened it before the
// session attached.
func (c *fakeContext) seedPage(url string) *fakePage {
	page := newFakePage(url)
	c.mu.Lock()
	c.pages = append(c.pages, page)
	c.mu.Unlock()
	return page
}

func (c *fakeContext) SetRequestRules(rules *RequestRules) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = rules
	return nil
}

func (c *fakeContext) StartTracing(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.traceStarted = true
	c.events = append(c.events, "trace-start")
	return nil
}

func (c *fakeContext) StopTracing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "trace-stop")
	return nil
}

func (c *fakeContext) Close(ctx context.Context) error {
	c.mu.Lock()
	block := c.closeBlock
	c.mu.Unlock()
	if block != nil {
		<-block
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCount++
	c.events = append(c.events, "close")
	return c.closeErr
}

func (c *fakeContext) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeFactory implements ContextFactory, counting invocations.
type fakeFactory struct {
	mu       sync.Mutex
	calls    atomic.Int32
	err      error
	delay    time.Duration
	prepare  func(*fakeContext)
	contexts []*fakeContext
}

func (f *fakeFactory) NewContext(ctx context.Context, info ClientInfo) (ContextHandle, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c := newFakeContext()
	if f.prepare != nil {
		f.prepare(c)
	}
	f.contexts = append(f.contexts, c)
	return c, nil
}

func (f *fakeFactory) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeFactory) last() *fakeContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.contexts) == 0 {
		return nil
	}
	return f.contexts[len(f.contexts)-1]
}

// fakeRecorder implements RecordingContextFactory.
type fakeRecorder struct {
	mu       sync.Mutex
	calls    atomic.Int32
	contexts []*fakeContext
}

func (f *fakeRecorder) NewRecordingContext(ctx context.Context, video VideoConfig) (ContextHandle, error) {
	f.calls.Add(1)
	c := newFakeContext()
	f.mu.Lock()
	f.contexts = append(f.contexts, c)
	f.mu.Unlock()
	return c, nil
}
