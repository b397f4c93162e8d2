package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No matching policy passages found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d passage(s):\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "--- %d. %s (similarity: %.3f) ---\n", i+1, r.Document.Metadata.Label(), r.Similarity)
		sb.WriteString(strings.TrimSpace(r.Document.Content))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Sources returns the distinct citation labels of results, in rank order.
func Sources(results []SearchResult) []string {
	seen := make(map[string]bool, len(results))
	var out []string
	for _, r := range results {
		label := r.Document.Metadata.Label()
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
