package llm

import "strings"

// TruncateToLength shortens text to at most maxLen characters. It prefers to cut after the last
// sentence end if that falls in the final 30% of the limit, otherwise cuts at a word boundary
// and appends an ellipsis.
func TruncateToLength(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	truncated := runes[:maxLen]
	for i := len(truncated) - 1; i > int(float64(maxLen)*0.7); i-- {
		if truncated[i] == '.' || truncated[i] == '?' || truncated[i] == '!' {
			return strings.TrimSpace(string(truncated[:i+1]))
		}
	}

	// leave room for the ellipsis
	room := truncated[:max(maxLen-3, 0)]
	cut := len(room)
	for i := len(room) - 1; i > 0; i-- {
		if room[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(room[:cut])) + "..."
}

// truncateBody limits post body sent to the model
func truncateBody(body string, maxChars int) string {
	runes := []rune(body)
	if len(runes) <= maxChars {
		return body
	}
	return string(runes[:maxChars]) + "..."
}
