package browser

import (
	"context"

	"github.com/driftlock/browsermux/pkg/response"
)

// TabList implements response.SessionView: the open-tabs listing in
// creation order.
func (s *Session) TabList() []response.TabInfo {
	s.mu.Lock()
	tabs := append([]*Tab(nil), s.tabs...)
	current := s.current
	s.mu.Unlock()

	infos := make([]response.TabInfo, 0, len(tabs))
	for i, tab := range tabs {
		infos = append(infos, response.TabInfo{
			Index:   i,
			URL:     tab.URL(),
			Title:   tab.Title(),
			Current: tab == current,
		})
	}
	return infos
}

// HasCurrentTab implements response.SessionView.
func (s *Session) HasCurrentTab() bool {
	return s.CurrentTab() != nil
}

// CaptureSnapshot implements response.SessionView: renders the current
// tab's page state. No current tab yields an empty snapshot.
func (s *Session) CaptureSnapshot(ctx context.Context, differential bool) (string, error) {
	tab := s.CurrentTab()
	if tab == nil {
		return "", nil
	}
	return tab.CaptureSnapshot(ctx, differential)
}
