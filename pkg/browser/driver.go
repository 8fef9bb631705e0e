package browser

import (
	"context"
	"time"
)

// ClientInfo identifies the client a context is created for.
type ClientInfo struct {
	Name    string
	Version string
}

// ConsoleMessage is one captured console entry from a page.
type ConsoleMessage struct {
	Type string
	Text string
	Time time.Time
}

// NetworkNotification is one captured network event from a page.
type NetworkNotification struct {
	Method  string
	URL     string
	Status  int
	Failure string
	Time    time.Time
}

// WebRTCRecord is one captured WebRTC connection record from a page.
type WebRTCRecord struct {
	ConnectionID string
	State        string
	Stats        string
	Time         time.Time
}

// PageHandle is the session's view of one driver page. Event registration
// methods may invoke their callbacks from driver goroutines.
type PageHandle interface {
	URL() string
	Title() (string, error)
	Content() (string, error)
	BringToFront() error
	Close() error

	// VideoPath returns the path of the page's finalized video recording.
	// Only meaningful after the page has closed in a recording context.
	VideoPath() (string, error)

	OnClose(fn func())
	OnConsole(fn func(ConsoleMessage))
	OnRequestFinished(fn func(NetworkNotification))
}

// ContextHandle is the session's view of one driver browser context.
// Closing the handle closes every page it hosts.
type ContextHandle interface {
	NewPage(ctx context.Context) (PageHandle, error)
	Pages() []PageHandle

	// OnPage registers a callback for pages created in this context,
	// invoked in the order the driver emits them.
	OnPage(fn func(PageHandle))

	// SetRequestRules installs request interception. A nil rules value is
	// never passed; callers skip installation when no rules are configured.
	SetRequestRules(rules *RequestRules) error

	StartTracing(name string) error
	StopTracing() error

	Close(ctx context.Context) error
}

// ContextFactory creates browser contexts for sessions. This is the external
// collaborator consulted on lazy context creation; it owns launch timeouts.
type ContextFactory interface {
	NewContext(ctx context.Context, info ClientInfo) (ContextHandle, error)
}

// ContextFactoryFunc adapts a function to the ContextFactory interface.
type ContextFactoryFunc func(ctx context.Context, info ClientInfo) (ContextHandle, error)

// NewContext implements ContextFactory.
func (f ContextFactoryFunc) NewContext(ctx context.Context, info ClientInfo) (ContextHandle, error) {
	return f(ctx, info)
}

// RecordingContextFactory creates isolated contexts with video capture,
// bypassing the shared context factory.
type RecordingContextFactory interface {
	NewRecordingContext(ctx context.Context, video VideoConfig) (ContextHandle, error)
}

// VideoConfig configures context video recording for a session.
type VideoConfig struct {
	// Dir is where the driver writes video files.
	Dir string

	// Width and Height set the recorded frame size; zero uses the viewport.
	Width  int
	Height int

	// BaseName is the base filename for this session's recordings.
	BaseName string
}
