package model

// QuestionKind defines how a question is answered
type QuestionKind string

const (
	QuestionKindRating QuestionKind = "rating" // One integer from a fixed ordered set
	QuestionKindText   QuestionKind = "text"   // Freeform input
)

// Valid reports whether the kind is one the survey knows how to render
func (k QuestionKind) Valid() bool {
	return k == QuestionKindRating || k == QuestionKindText
}

// Question is one predefined entry of the questionnaire
type Question struct {
	ID      int          `json:"id" bson:"id" yaml:"id"`
	Prompt  string       `json:"prompt" bson:"prompt" yaml:"prompt"`
	Kind    QuestionKind `json:"kind" bson:"kind" yaml:"kind"`
	Options []int        `json:"options,omitempty" bson:"options,omitempty" yaml:"options,omitempty"` // rating only
}

// Allows reports whether value is one of the permitted rating options
func (q *Question) Allows(value int) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate shared option slices
func (q Question) Clone() Question {
	if q.Options != nil {
		q.Options = append([]int(nil), q.Options...)
	}
	return q
}
