package generate

import (
	"fmt"
	"strings"
	"text/template"
)

// systemPrompt instructs the model to emit a bare JSON array of study cards.
// The schema it describes is the one internal/deck validates.
const systemPrompt = `You are a brilliant tutor who turns any topic into an engaging, scroll-friendly study feed.

Generate a JSON array of study cards. Each card should be short, punchy, and digestible, like a smart social feed, not a textbook.

Card types and their schemas:
- concept:   { "type": "concept",   "title": str, "body": str }
- analogy:   { "type": "analogy",   "title": str, "body": str }
- example:   { "type": "example",   "title": str, "body": str }
- deep_dive: { "type": "deep_dive", "title": str, "body": str }
- quiz:      { "type": "quiz",      "question": str, "answer": str }
- summary:   { "type": "summary",   "title": str, "body": str }

Rules:
- Generate 12-18 cards per topic
- Each body/answer must be under 120 words
- Start with a "concept" card that defines the topic clearly
- Sprinkle in 2-3 "quiz" cards throughout (not all at the end)
- End with a "summary" card
- Write like you're explaining to a curious 20-year-old, not a professor
- Use concrete language, no fluff

Return ONLY valid JSON array. No markdown, no explanation, no code fences.`

// userPromptTmpl embeds the topic into the per-request prompt.
var userPromptTmpl = template.Must(template.New("prompt").Parse(
	`Create a study feed for this topic: {{.Topic}}`))

// buildPrompt renders the user prompt for topic.
func buildPrompt(topic string) (string, error) {
	var sb strings.Builder
	if err := userPromptTmpl.Execute(&sb, struct{ Topic string }{Topic: topic}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
