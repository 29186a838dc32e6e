package narrate

import (
	"fmt"
	"strings"

	"github.com/studyscroll/studyscroll/internal/deck"
)

// segment locates one card's text within the full script, in runes.
type segment struct {
	order int
	start int
}

// cardLine renders the spoken form of a single card.
func cardLine(c deck.Card) string {
	switch c.Type {
	case deck.TypeQuiz:
		return fmt.Sprintf("Quiz time. %s ... Think about it ... The answer is: %s", c.Title, c.Answer)
	case deck.TypeSummary:
		return fmt.Sprintf("Summary. %s. %s", c.Title, c.Body)
	default:
		return fmt.Sprintf("%s. %s", c.Title, c.Body)
	}
}

// buildScript joins the intro line and one line per card with blank-line
// pauses, returning the full script plus each card's rune offset within it.
// The intro is not part of any card's segment; its share of the audio counts
// as leading silence.
func buildScript(topic string, cards deck.Sequence) (string, []segment) {
	lines := make([]string, 0, len(cards)+1)
	lines = append(lines, fmt.Sprintf("Let's study %s.\n", topic))

	segments := make([]segment, 0, len(cards))
	// Rune offset of the next line within the joined script.
	offset := len([]rune(lines[0])) + len(sep)
	for _, c := range cards {
		line := cardLine(c)
		segments = append(segments, segment{order: c.Order, start: offset})
		lines = append(lines, line)
		offset += len([]rune(line)) + len(sep)
	}
	return strings.Join(lines, sep), segments
}

const sep = "\n\n"
