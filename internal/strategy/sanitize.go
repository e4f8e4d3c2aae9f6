package strategy

import "strings"

const maxPromptLen = 500

var blockedMarkers = []string{"```", "<script", "</script", "http://", "https://"}

// sanitize trims the prompt and rejects URLs, fenced code, and script
// markers before any parsing is attempted.
func sanitize(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", &InvalidPrompt{Reason: "prompt is empty"}
	}
	if len(trimmed) > maxPromptLen {
		return "", &InvalidPrompt{Reason: "prompt exceeds 500 characters"}
	}
	if strings.ContainsAny(trimmed, "<>") {
		return "", &InvalidPrompt{Reason: "prompt contains angle brackets"}
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range blockedMarkers {
		if strings.Contains(lower, marker) {
			return "", &InvalidPrompt{Reason: "prompt contains a disallowed marker: " + marker}
		}
	}

	return trimmed, nil
}
