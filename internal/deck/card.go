// Package deck defines the study card data model and the validator that
// turns raw model output into a finalized card sequence.
//
// A deck is a short ordered sequence of cards (12 to 18) covering one topic:
// it opens with a concept card, mixes in analogies, examples, deep dives and
// quizzes, and closes with a summary. The validator enforces that shape,
// repairing what it safely can and rejecting everything else with a typed
// error carrying a machine-readable reason.
package deck

// CardType classifies the pedagogical role of a card.
type CardType string

const (
	// TypeConcept introduces the core idea. Always the first card.
	TypeConcept CardType = "concept"
	// TypeAnalogy relates the topic to something familiar.
	TypeAnalogy CardType = "analogy"
	// TypeExample shows the topic in action.
	TypeExample CardType = "example"
	// TypeDeepDive expands one aspect in more detail.
	TypeDeepDive CardType = "deep_dive"
	// TypeQuiz poses a question with a hidden answer.
	TypeQuiz CardType = "quiz"
	// TypeSummary recaps the deck. Always the last card.
	TypeSummary CardType = "summary"
)

// Valid reports whether t is one of the recognized card types.
func (t CardType) Valid() bool {
	switch t {
	case TypeConcept, TypeAnalogy, TypeExample, TypeDeepDive, TypeQuiz, TypeSummary:
		return true
	}
	return false
}

// Card is a single study unit within a sequence.
type Card struct {
	// Type is one of the six recognized card types.
	Type CardType `json:"type"`
	// Title is a short heading for the card. For quiz cards it holds the
	// question text.
	Title string `json:"title"`
	// Body is the display text, kept under roughly 120 words.
	Body string `json:"body"`
	// Answer is present only on quiz cards and is hidden until revealed.
	Answer string `json:"answer,omitempty"`
	// Order is the card's zero-based position in the sequence. Orders are
	// unique and contiguous within a finalized sequence.
	Order int `json:"order"`
}

// Sequence is an ordered, schema-valid list of cards for one topic. A
// sequence is immutable once finalized; regenerating a topic produces a new
// sequence rather than editing one in place.
type Sequence []Card

// Card count bounds enforced by the validator.
const (
	MinCards = 12
	MaxCards = 18
)
