package response

import (
	"fmt"
	"strings"
)

// DefaultSnapshotTokens is the default token budget for a page snapshot.
const DefaultSnapshotTokens = 4000

// essentialMarkers identify snapshot lines that are kept ahead of everything
// else when a snapshot exceeds its budget.
var essentialMarkers = []string{"Page URL:", "Page Title:", "###", "Error"}

// TruncateSnapshot fits a snapshot into a token budget using the fixed
// chars-per-token heuristic. Under-budget input is returned unchanged.
// Over budget, essential lines (URL, title, section and error markers) are
// kept first, the rest of the budget is filled with the remaining lines in
// original order, and a truncation notice is appended. Never fails; an
// empty result plus notice is the worst case.
func TruncateSnapshot(snapshot string, maxTokens int) string {
	total := HeuristicEstimator{}.Estimate(snapshot)
	if total <= maxTokens {
		return snapshot
	}

	lines := strings.Split(snapshot, "\n")
	var essential, other []string
	for _, line := range lines {
		if isEssentialLine(line) {
			essential = append(essential, line)
		} else {
			other = append(other, line)
		}
	}

	var kept []string
	budget := maxTokens
	for _, line := range essential {
		cost := lineTokenCost(line)
		if cost > budget {
			break
		}
		kept = append(kept, line)
		budget -= cost
	}
	if len(kept) == len(essential) {
		for _, line := range other {
			cost := lineTokenCost(line)
			if cost > budget {
				break
			}
			kept = append(kept, line)
			budget -= cost
		}
	}

	body := strings.Join(kept, "\n")
	keptTokens := HeuristicEstimator{}.Estimate(body)
	notice := fmt.Sprintf(
		"\n[Snapshot truncated: kept ~%d of ~%d tokens. "+
			"Use the full-snapshot tool for complete output, raise the snapshot token limit, "+
			"enable differential snapshots, or disable automatic snapshots.]",
		keptTokens, total)
	return body + notice
}

func isEssentialLine(line string) bool {
	for _, marker := range essentialMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// lineTokenCost prices a line including its newline separator.
func lineTokenCost(line string) int {
	cost := (len(line) + 1) / charsPerToken
	if cost == 0 {
		cost = 1
	}
	return cost
}
