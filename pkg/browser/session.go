package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/driftlock/browsermux/pkg/config"
	"github.com/driftlock/browsermux/pkg/logging"
)

// SessionDeps are the collaborators a session needs. The factory is the
// external context source; the recorder builds isolated recording contexts
// when video capture is configured.
type SessionDeps struct {
	Factory  ContextFactory
	Recorder RecordingContextFactory
	Config   config.BrowserConfig
	Client   ClientInfo
}

// Session owns at most one browser context and the tabs it hosts, on behalf
// of one logical client. The context is created lazily on first demand and
// torn down when the last tab closes, when configuration changes, or on
// explicit close.
//
// Context liveness follows a strict state machine: unprovisioned ->
// provisioning (one in-flight creation) -> live -> closing (one in-flight
// close) -> unprovisioned. A failed creation returns to unprovisioned so the
// next demand retries instead of replaying a cached failure.
type Session struct {
	registry *Registry
	factory  ContextFactory
	recorder RecordingContextFactory
	client   ClientInfo
	log      *log.Logger

	mu           sync.Mutex
	id           string
	clientBound  bool
	cfg          config.BrowserConfig
	browserCtx   ContextHandle
	provisioning *provisionFuture
	closing      *closeFuture
	tracing      bool
	tabs         []*Tab
	current      *Tab
	video        *VideoConfig
	recording    map[PageHandle]struct{}
	lastUsed     time.Time
}

type provisionFuture struct {
	done   chan struct{}
	handle ContextHandle
	err    error
}

type closeFuture struct {
	done chan struct{}
	err  error
}

func newSession(id string, registry *Registry, deps SessionDeps) *Session {
	return &Session{
		registry:  registry,
		factory:   deps.Factory,
		recorder:  deps.Recorder,
		client:    deps.Client,
		log:       logging.For("session").With("session", id),
		id:        id,
		cfg:       deps.Config.Clone(),
		recording: make(map[PageHandle]struct{}),
		lastUsed:  time.Now(),
	}
}

// ID returns the session identifier. Provisional until client identity is
// bound, then final.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// LastUsed returns the time of the last public operation on this session.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Config returns a copy of the session's browser configuration.
func (s *Session) Config() config.BrowserConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// rebind installs the finalized id. Called by the registry exactly once.
func (s *Session) rebind(id string) {
	s.mu.Lock()
	s.id = id
	s.clientBound = true
	s.log = logging.For("session").With("session", id)
	s.mu.Unlock()
}

// logger returns the session logger. Guarded because rebind swaps it for
// one carrying the finalized id.
func (s *Session) logger() *log.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}

// Tabs returns the current tab list in creation order.
func (s *Session) Tabs() []*Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Tab(nil), s.tabs...)
}

// CurrentTab returns the focused tab, or nil if there is none.
func (s *Session) CurrentTab() *Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentTabOrErr returns the focused tab or ErrNoActiveTab. Callers should
// navigate or open a page first.
func (s *Session) CurrentTabOrErr() (*Tab, error) {
	if tab := s.CurrentTab(); tab != nil {
		return tab, nil
	}
	return nil, ErrNoActiveTab
}

// NewTab opens a new page in the (lazily created) browser context, registers
// it, and makes it current.
func (s *Session) NewTab(ctx context.Context) (*Tab, error) {
	s.touch()

	handle, err := s.ensureContext(ctx)
	if err != nil {
		return nil, err
	}

	page, err := handle.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open new page: %w", err)
	}

	// The page-created event normally registers the tab before NewPage
	// returns; registerPage is idempotent for the case where it has not
	// fired yet.
	tab := s.registerPage(page)

	s.mu.Lock()
	s.current = tab
	s.mu.Unlock()
	return tab, nil
}

// SelectTab brings the tab at index to the front and makes it current.
func (s *Session) SelectTab(ctx context.Context, index int) (*Tab, error) {
	s.touch()

	s.mu.Lock()
	if index < 0 || index >= len(s.tabs) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: index %d", ErrTabNotFound, index)
	}
	tab := s.tabs[index]
	s.mu.Unlock()

	// Focus first; the current tab only changes once the driver agrees.
	if err := tab.page.BringToFront(); err != nil {
		return nil, fmt.Errorf("failed to focus tab %d: %w", index, err)
	}

	s.mu.Lock()
	s.current = tab
	s.mu.Unlock()
	return tab, nil
}

// EnsureTab returns the current tab, adopting the context's first page or
// opening a new one when the session has no tab yet.
func (s *Session) EnsureTab(ctx context.Context) (*Tab, error) {
	s.touch()

	s.mu.Lock()
	if s.current != nil {
		tab := s.current
		s.mu.Unlock()
		return tab, nil
	}
	s.mu.Unlock()

	if _, err := s.ensureContext(ctx); err != nil {
		return nil, err
	}

	// Context creation registers any pages the driver pre-opened.
	s.mu.Lock()
	if len(s.tabs) > 0 {
		if s.current == nil {
			s.current = s.tabs[0]
		}
		tab := s.current
		s.mu.Unlock()
		return tab, nil
	}
	s.mu.Unlock()

	return s.NewTab(ctx)
}

// CloseTab closes the tab at index, or the current tab when index is
// negative, and returns the URL it was showing. Closing the last tab tears
// the browser context down before returning.
func (s *Session) CloseTab(ctx context.Context, index int) (string, error) {
	s.touch()

	s.mu.Lock()
	var tab *Tab
	switch {
	case index < 0:
		tab = s.current
	case index < len(s.tabs):
		tab = s.tabs[index]
	}
	if tab == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: index %d", ErrTabNotFound, index)
	}
	s.mu.Unlock()

	url := tab.URL()
	if err := tab.page.Close(); err != nil {
		return "", fmt.Errorf("failed to close tab: %w", err)
	}

	// The page-close event normally removes the tab; do it here as well so
	// the empty-list teardown below observes the final state.
	s.removeTab(tab)

	s.mu.Lock()
	empty := len(s.tabs) == 0
	s.mu.Unlock()
	if empty {
		if err := s.CloseBrowserContext(ctx); err != nil {
			s.logger().Warn("context teardown after last tab close failed", "error", err)
		}
	}
	return url, nil
}

// registerPage wraps a driver page in a Tab, exactly once per page handle.
// Invoked both reactively from the context's page-created events and
// directly from NewTab.
func (s *Session) registerPage(page PageHandle) *Tab {
	s.mu.Lock()
	for _, existing := range s.tabs {
		if existing.page == page {
			s.mu.Unlock()
			return existing
		}
	}
	tab := newTab(page)
	s.tabs = append(s.tabs, tab)
	if s.current == nil {
		s.current = tab
	}
	if s.video != nil {
		s.recording[page] = struct{}{}
	}
	s.mu.Unlock()

	page.OnClose(func() { s.removeTab(tab) })
	s.logger().Debug("tab registered", "tabs", len(s.Tabs()))
	return tab
}

// removeTab drops a closed tab from the list, promoting the tab at
// min(removedIndex, newLength-1) when the removed tab was current. Safe to
// call more than once per tab.
func (s *Session) removeTab(tab *Tab) {
	s.mu.Lock()
	idx := -1
	for i, t := range s.tabs {
		if t == tab {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.tabs = append(s.tabs[:idx], s.tabs[idx+1:]...)
	delete(s.recording, tab.page)
	if s.current == tab {
		if len(s.tabs) == 0 {
			s.current = nil
		} else {
			next := idx
			if next > len(s.tabs)-1 {
				next = len(s.tabs) - 1
			}
			s.current = s.tabs[next]
		}
	}
	empty := len(s.tabs) == 0 && s.browserCtx != nil
	s.mu.Unlock()

	tab.clearBuffers()

	// The context releases automatically once its last tab is gone.
	if empty {
		go func() {
			if err := s.CloseBrowserContext(context.Background()); err != nil {
				s.logger().Warn("context teardown after last page close failed", "error", err)
			}
		}()
	}
}

// ensureContext returns the live browser context, creating it when needed.
// Concurrent callers during creation observe the same in-flight attempt; a
// failed attempt is cleared so the next call retries from scratch.
func (s *Session) ensureContext(ctx context.Context) (ContextHandle, error) {
	s.mu.Lock()
	if s.browserCtx != nil {
		handle := s.browserCtx
		s.mu.Unlock()
		return handle, nil
	}
	if s.closing != nil {
		s.mu.Unlock()
		return nil, ErrContextBusyClosing
	}
	if f := s.provisioning; f != nil {
		s.mu.Unlock()
		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if f.err != nil {
			return nil, f.err
		}
		return f.handle, nil
	}

	f := &provisionFuture{done: make(chan struct{})}
	s.provisioning = f
	s.mu.Unlock()

	handle, err := s.createContext(ctx)

	s.mu.Lock()
	f.handle, f.err = handle, err
	if err == nil {
		s.browserCtx = handle
	}
	s.provisioning = nil
	s.mu.Unlock()
	close(f.done)

	if err != nil {
		return nil, err
	}
	return handle, nil
}

// createContext builds and configures a new browser context: recording
// contexts bypass the external factory, interception rules are installed,
// existing and future pages are adopted, and tracing starts when configured.
func (s *Session) createContext(ctx context.Context) (ContextHandle, error) {
	s.mu.Lock()
	video := s.video
	cfg := s.cfg.Clone()
	s.mu.Unlock()

	var handle ContextHandle
	var err error
	if video != nil {
		if s.recorder == nil {
			return nil, fmt.Errorf("video recording configured but no recorder available")
		}
		handle, err = s.recorder.NewRecordingContext(ctx, *video)
	} else {
		handle, err = s.factory.NewContext(ctx, s.client)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	rules, err := CompileRequestRules(cfg.AllowedOrigins, cfg.BlockedOrigins)
	if err != nil {
		_ = handle.Close(ctx)
		return nil, err
	}
	if rules != nil {
		if err := handle.SetRequestRules(rules); err != nil {
			_ = handle.Close(ctx)
			return nil, fmt.Errorf("failed to install request interception: %w", err)
		}
	}

	for _, page := range handle.Pages() {
		s.registerPage(page)
	}
	handle.OnPage(func(page PageHandle) {
		s.registerPage(page)
	})

	if cfg.TraceDir != "" {
		if err := handle.StartTracing(s.ID()); err != nil {
			_ = handle.Close(ctx)
			return nil, fmt.Errorf("failed to start tracing: %w", err)
		}
		s.mu.Lock()
		s.tracing = true
		s.mu.Unlock()
	}

	s.logger().Debug("browser context created", "recording", video != nil, "intercepted", rules != nil)
	return handle, nil
}

// CloseBrowserContext tears down the live context. Idempotent; concurrent
// callers coalesce onto one in-flight close. Tracing, when active, is
// stopped before the underlying close.
func (s *Session) CloseBrowserContext(ctx context.Context) error {
	for {
		s.mu.Lock()
		if f := s.closing; f != nil {
			s.mu.Unlock()
			select {
			case <-f.done:
				return f.err
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if p := s.provisioning; p != nil {
			// A creation is in flight; wait for it to settle, then close
			// whatever it produced.
			s.mu.Unlock()
			select {
			case <-p.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if s.browserCtx == nil {
			s.mu.Unlock()
			return nil
		}

		handle := s.browserCtx
		tracing := s.tracing
		s.browserCtx = nil
		s.tracing = false
		// Stale tab handles must not be observable while the close drains.
		dropped := s.tabs
		s.tabs = nil
		s.current = nil
		s.recording = make(map[PageHandle]struct{})
		f := &closeFuture{done: make(chan struct{})}
		s.closing = f
		s.mu.Unlock()

		for _, tab := range dropped {
			tab.clearBuffers()
		}

		var err error
		if tracing {
			if terr := handle.StopTracing(); terr != nil {
				s.logger().Warn("failed to stop tracing", "error", terr)
			}
		}
		err = handle.Close(ctx)

		s.mu.Lock()
		s.closing = nil
		s.mu.Unlock()

		f.err = err
		close(f.done)
		if err != nil {
			return fmt.Errorf("failed to close browser context: %w", err)
		}
		return nil
	}
}

// Dispose closes the browser context and removes the session from its
// registry. Used at process shutdown to find and drain all live sessions.
func (s *Session) Dispose(ctx context.Context) error {
	err := s.CloseBrowserContext(ctx)
	if s.registry != nil {
		s.registry.forget(s.ID())
	}
	return err
}
