package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/response"
	"github.com/driftlock/browsermux/pkg/security/artifacts"
)

// VideoTool starts and stops video recording for a session. Destination
// directories are confined to the artifact root.
type VideoTool struct {
	guard *artifacts.Guard
}

// NewVideoTool creates a new video tool writing under the guarded artifact
// directory.
func NewVideoTool(guard *artifacts.Guard) *VideoTool {
	return &VideoTool{guard: guard}
}

// Name returns the tool name.
func (t *VideoTool) Name() string {
	return "browser_video"
}

// Description returns the tool description.
func (t *VideoTool) Description() string {
	return "Start or stop video recording for a browser session. " +
		"Actions: start (dir, width, height, filename), stop (returns saved file paths)."
}

// Execute performs the requested recording action.
func (t *VideoTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	switch action := args.String("action"); action {
	case "start":
		dir, err := t.guard.Resolve(args.String("dir"))
		if err != nil {
			return fmt.Errorf("invalid recording directory: %w", err)
		}
		video := browser.VideoConfig{
			Dir:      dir,
			BaseName: args.String("filename"),
		}
		if w, ok := args.Int("width"); ok {
			video.Width = w
		}
		if h, ok := args.Int("height"); ok {
			video.Height = h
		}
		session.SetVideoRecording(video)
		rb.AddResultf("Video recording enabled, files will be written to %s", video.Dir)
		return nil

	case "stop":
		paths, err := session.StopVideoRecording(ctx)
		if err != nil {
			return fmt.Errorf("failed to stop video recording: %w", err)
		}
		if len(paths) == 0 {
			rb.AddResult("Video recording stopped, no recordings were produced")
			return nil
		}
		rb.AddResultf("Video recording stopped, %d file(s) saved:\n- %s",
			len(paths), strings.Join(paths, "\n- "))
		return nil

	default:
		return fmt.Errorf("unknown video action %q", action)
	}
}
