package deck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the outcome of a successful validation. Sequence is the
// finalized card sequence; Repairs lists every local repair that was applied
// to reach it, so callers can distinguish clean output from repaired output.
type Result struct {
	Sequence Sequence
	Repairs  []string
}

// rawCard mirrors the model's wire shape. Order is a pointer so that an
// absent order can be told apart from an explicit zero. Question is accepted
// as an alias for Title because quiz cards are often emitted with
// question/answer keys.
type rawCard struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Question string `json:"question"`
	Body     string `json:"body"`
	Answer   string `json:"answer"`
	Order    *int   `json:"order"`
}

// Validate parses raw model output and returns a finalized Sequence, applying
// local per-card repairs where safe. It is a pure function over its input.
//
// Repairs (logged in Result.Repairs, never errors): stray markdown fences
// stripped; a quiz card's question key used as its title; an answer on a
// non-quiz card dropped; a missing order assigned from position;
// non-contiguous orders renumbered; a non-quiz first or last card retyped to
// concept or summary.
//
// Structural defects fail with *Error: ReasonUnparseable when the input is
// not a JSON array of objects, ReasonBadCount when the count is outside
// [MinCards, MaxCards], ReasonUnknownType for an unrecognized type string,
// ReasonMissingAnswer for a quiz card without an answer, and
// ReasonBadStructure when a boundary card is a quiz and no safe retype
// exists.
func Validate(raw []byte) (*Result, error) {
	text, stripped := stripFences(string(raw))

	var rawCards []rawCard
	if err := json.Unmarshal([]byte(text), &rawCards); err != nil {
		return nil, failf(ReasonUnparseable, "not a JSON array of card objects: %v", err)
	}
	if n := len(rawCards); n < MinCards || n > MaxCards {
		return nil, failf(ReasonBadCount, "got %d cards, want between %d and %d", n, MinCards, MaxCards)
	}

	var repairs []string
	if stripped {
		repairs = append(repairs, "stripped markdown code fences")
	}

	cards := make(Sequence, 0, len(rawCards))
	renumber := false
	for i, rc := range rawCards {
		ct := CardType(strings.TrimSpace(rc.Type))
		if !ct.Valid() {
			return nil, failf(ReasonUnknownType, "card %d has unrecognized type %q", i, rc.Type)
		}

		title := strings.TrimSpace(rc.Title)
		if title == "" && strings.TrimSpace(rc.Question) != "" {
			title = strings.TrimSpace(rc.Question)
			repairs = append(repairs, fmt.Sprintf("card %d: used question key as title", i))
		}

		answer := strings.TrimSpace(rc.Answer)
		if ct == TypeQuiz {
			if answer == "" {
				return nil, failf(ReasonMissingAnswer, "quiz card %d has no answer", i)
			}
		} else if answer != "" {
			answer = ""
			repairs = append(repairs, fmt.Sprintf("card %d: dropped answer on non-quiz card", i))
		}

		order := i
		switch {
		case rc.Order == nil:
			repairs = append(repairs, fmt.Sprintf("card %d: assigned order from position", i))
		case *rc.Order != i:
			renumber = true
		default:
			order = *rc.Order
		}

		cards = append(cards, Card{
			Type:   ct,
			Title:  title,
			Body:   strings.TrimSpace(rc.Body),
			Answer: answer,
			Order:  order,
		})
	}

	// Orders that are present but not a contiguous zero-based run are
	// renumbered from position wholesale rather than patched individually.
	if renumber {
		for i := range cards {
			cards[i].Order = i
		}
		repairs = append(repairs, "renumbered non-contiguous orders from position")
	}

	if first := &cards[0]; first.Type != TypeConcept {
		if first.Type == TypeQuiz {
			return nil, failf(ReasonBadStructure, "first card is a quiz, cannot retype to concept")
		}
		repairs = append(repairs, fmt.Sprintf("card 0: retyped %s to concept", first.Type))
		first.Type = TypeConcept
	}
	if last := &cards[len(cards)-1]; last.Type != TypeSummary {
		if last.Type == TypeQuiz {
			return nil, failf(ReasonBadStructure, "last card is a quiz, cannot retype to summary")
		}
		repairs = append(repairs, fmt.Sprintf("card %d: retyped %s to summary", len(cards)-1, last.Type))
		last.Type = TypeSummary
	}

	return &Result{Sequence: cards, Repairs: repairs}, nil
}

// stripFences removes a surrounding markdown code fence if present and
// reports whether anything was stripped.
func stripFences(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	out := trimmed
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	out = strings.TrimSpace(out)
	return out, out != trimmed
}
