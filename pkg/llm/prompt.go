package llm

import (
	"fmt"
	"strings"

	"github.com/umputun/enggist/pkg/domain"
)

const systemPrompt = `You summarize engineering blog posts for busy software engineers.
Respond with a single JSON object and nothing else.`

// buildPrompt renders the user prompt with output constraints and the allowed tag vocabulary
func buildPrompt(title, body string) string {
	tags := make([]string, 0, len(domain.AllTags()))
	for _, t := range domain.AllTags() {
		tags = append(tags, string(t))
	}

	var sb strings.Builder
	sb.WriteString("Summarize the following engineering blog post.\n\n")
	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "- bullets: %d to %d concise key takeaways, one sentence each\n", minBullets, maxBullets)
	fmt.Fprintf(&sb, "- whyItMatters: at most %d characters on why this matters to practicing engineers\n", maxWhyItMatters)
	fmt.Fprintf(&sb, "- tags: 1 to %d tags, only from: %s\n", maxTags, strings.Join(tags, ", "))
	fmt.Fprintf(&sb, "- keywords: %d to %d specific technologies or concepts mentioned\n\n", minKeywords, maxKeywords)
	fmt.Fprintf(&sb, "Title: %s\n\n", title)
	sb.WriteString("Content:\n")
	sb.WriteString(body)
	return sb.String()
}
