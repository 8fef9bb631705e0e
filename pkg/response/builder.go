package response

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/driftlock/browsermux/pkg/logging"
)

// TabInfo is one entry of the open-tabs listing.
type TabInfo struct {
	Index   int
	URL     string
	Title   string
	Current bool
}

// SessionView is the slice of a session the builder consults at
// serialization time.
type SessionView interface {
	// TabList describes the open tabs in creation order.
	TabList() []TabInfo

	// HasCurrentTab reports whether a snapshot target exists.
	HasCurrentTab() bool

	// CaptureSnapshot renders the current tab's page state, full or
	// differential.
	CaptureSnapshot(ctx context.Context, differential bool) (string, error)
}

// ImagePolicy controls whether image attachments reach the serialized
// payload.
type ImagePolicy string

const (
	ImagesAllowed ImagePolicy = "allowed"
	ImagesOmitted ImagePolicy = "omit"
)

// BuilderOptions configure one builder instance.
type BuilderOptions struct {
	// IncludeSnapshot requests a page snapshot at serialization time.
	IncludeSnapshot bool

	// Differential requests only the delta since the tab's previous
	// snapshot. Differential snapshots bypass truncation.
	Differential bool

	// IncludeTabs forces the open-tabs listing even without a snapshot.
	IncludeTabs bool

	// SnapshotTokens is the snapshot truncation budget.
	// Zero uses DefaultSnapshotTokens.
	SnapshotTokens int

	// Images controls image attachment serialization.
	Images ImagePolicy
}

// attachment is one binary image buffered for serialization.
type attachment struct {
	mimeType string
	data     []byte
}

// Builder accumulates one tool invocation's output and shapes it into the
// client-visible payload. Create one per invocation; never reuse.
type Builder struct {
	session SessionView
	opts    BuilderOptions

	mu     sync.Mutex
	result []string
	code   []string
	images []attachment

	snapshotOnce sync.Once
	snapshot     string
}

// NewBuilder creates a builder bound to the invoking session's view.
func NewBuilder(session SessionView, opts BuilderOptions) *Builder {
	if opts.SnapshotTokens <= 0 {
		opts.SnapshotTokens = DefaultSnapshotTokens
	}
	return &Builder{session: session, opts: opts}
}

// AddResult appends one line of result text.
func (b *Builder) AddResult(line string) {
	b.mu.Lock()
	b.result = append(b.result, line)
	b.mu.Unlock()
}

// AddResultf appends one formatted line of result text.
func (b *Builder) AddResultf(format string, args ...any) {
	b.AddResult(fmt.Sprintf(format, args...))
}

// AddCode appends one line to the pseudo-code trace of what the tool ran.
func (b *Builder) AddCode(line string) {
	b.mu.Lock()
	b.code = append(b.code, line)
	b.mu.Unlock()
}

// AddImage attaches a binary image. An empty mimeType is sniffed from the
// data.
func (b *Builder) AddImage(mimeType string, data []byte) {
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	b.mu.Lock()
	b.images = append(b.images, attachment{mimeType: mimeType, data: data})
	b.mu.Unlock()
}

// Snapshot returns the page snapshot for this response, computing it at most
// once per builder. Empty when snapshots were not requested, no tab is
// active, or capture failed (failures degrade to an empty snapshot, they do
// not fail the response).
func (b *Builder) Snapshot(ctx context.Context) string {
	b.snapshotOnce.Do(func() {
		if !b.opts.IncludeSnapshot || b.session == nil || !b.session.HasCurrentTab() {
			return
		}
		snap, err := b.session.CaptureSnapshot(ctx, b.opts.Differential)
		if err != nil {
			logging.For("response").Warn("snapshot capture failed", "error", err)
			return
		}
		if !b.opts.Differential {
			snap = TruncateSnapshot(snap, b.opts.SnapshotTokens)
		}
		b.snapshot = snap
	})
	return b.snapshot
}

// Serialize produces the ordered content payload: result section, ran-code
// section, open-tabs listing, snapshot text, then image attachments.
func (b *Builder) Serialize(ctx context.Context) []Content {
	// Snapshot retrieval may consult the session; do it before taking the
	// builder lock.
	snapshot := b.Snapshot(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	var blocks []Content
	if len(b.result) > 0 {
		blocks = append(blocks, TextBlock("### Result\n"+strings.Join(b.result, "\n")))
	}
	if len(b.code) > 0 {
		blocks = append(blocks, TextBlock("### Ran code\n```js\n"+strings.Join(b.code, "\n")+"\n```"))
	}
	if (b.opts.IncludeSnapshot || b.opts.IncludeTabs) && b.session != nil {
		if listing := formatTabList(b.session.TabList()); listing != "" {
			blocks = append(blocks, TextBlock(listing))
		}
	}
	if snapshot != "" {
		blocks = append(blocks, TextBlock("### Page state\n"+snapshot))
	}
	if b.opts.Images != ImagesOmitted {
		for _, img := range b.images {
			blocks = append(blocks, ImageBlock(img.mimeType, img.data))
		}
	}
	return blocks
}

func formatTabList(tabs []TabInfo) string {
	if len(tabs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("### Open tabs")
	for _, tab := range tabs {
		marker := ""
		if tab.Current {
			marker = " (current)"
		}
		title := tab.Title
		if title == "" {
			title = "untitled"
		}
		fmt.Fprintf(&sb, "\n- %d:%s [%s] (%s)", tab.Index, marker, title, tab.URL)
	}
	return sb.String()
}
