package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftlock/browsermux/pkg/config"
)

// SetVideoRecording stores the video configuration for this session. A live
// browser context is closed asynchronously; the next access lazily recreates
// it with recording enabled. Does not block the caller.
func (s *Session) SetVideoRecording(video VideoConfig) {
	s.touch()

	s.mu.Lock()
	v := video
	s.video = &v
	live := s.browserCtx != nil
	s.mu.Unlock()

	if live {
		go func() {
			if err := s.CloseBrowserContext(context.Background()); err != nil {
				s.logger().Warn("context close for recording restart failed", "error", err)
			}
		}()
	}
}

// StopVideoRecording closes every page with an active recording so the
// driver finalizes its video file, and returns the collected file paths.
// Pages that are already closed or yield no path are skipped. When the
// configuration names a base filename, finalized files are renamed to it.
// Clears the video configuration and the tracked-page set; returns an empty
// list when no recording was configured.
func (s *Session) StopVideoRecording(ctx context.Context) ([]string, error) {
	s.touch()

	s.mu.Lock()
	if s.video == nil {
		s.mu.Unlock()
		return nil, nil
	}
	video := *s.video
	pages := make([]PageHandle, 0, len(s.recording))
	for page := range s.recording {
		pages = append(pages, page)
	}
	s.video = nil
	s.recording = make(map[PageHandle]struct{})
	s.mu.Unlock()

	var paths []string
	for _, page := range pages {
		if err := page.Close(); err != nil {
			// Already closed out of band; nothing to finalize.
			s.logger().Debug("recorded page already closed", "error", err)
			continue
		}
		path, err := page.VideoPath()
		if err != nil || path == "" {
			continue
		}
		if video.BaseName != "" {
			renamed := filepath.Join(filepath.Dir(path),
				fmt.Sprintf("%s-%d%s", video.BaseName, len(paths)+1, filepath.Ext(path)))
			if rerr := os.Rename(path, renamed); rerr != nil {
				s.logger().Warn("failed to rename recording", "from", path, "error", rerr)
			} else {
				path = renamed
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// UpdateBrowserConfig overlays changes onto a copy of the session's browser
// configuration. A selected device profile overrides individually supplied
// viewport and user agent; an unrecognized device name fails with
// ErrUnknownDevice. The live context is closed and the tab list cleared so
// stale handles are never reused against the reconfigured context.
func (s *Session) UpdateBrowserConfig(ctx context.Context, changes config.BrowserConfig) error {
	s.touch()

	s.mu.Lock()
	updated, err := s.cfg.Update(changes)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.cfg = updated
	s.mu.Unlock()

	if err := s.CloseBrowserContext(ctx); err != nil {
		return fmt.Errorf("failed to recycle context after config update: %w", err)
	}
	return nil
}
