// Package extract turns raw LLM output into structured requests.
package extract

import "strings"

const fence = "```"

// StripCodeFence trims s and removes leading ``` or ```json markers and trailing ``` markers,
// repeating until none are left, so StripCodeFence(StripCodeFence(s)) == StripCodeFence(s).
func StripCodeFence(s string) string {
	cleaned := strings.TrimSpace(s)
	for {
		next := stripOnce(cleaned)
		if next == cleaned {
			return cleaned
		}
		cleaned = next
	}
}

func stripOnce(s string) string {
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, fence) {
		s = strings.TrimSuffix(s, fence)
		s = strings.TrimSpace(s)
	}
	return s
}
