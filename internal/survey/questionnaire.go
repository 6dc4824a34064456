package survey

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"feedbacksurvey/internal/model"
)

// Questionnaire is the immutable, ordered question list a controller walks through
type Questionnaire struct {
	questions []model.Question
	index     map[int]int // question id -> position
}

// NewQuestionnaire validates and freezes a question list
func NewQuestionnaire(questions []model.Question) (*Questionnaire, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidQuestionnaire)
	}

	q := &Questionnaire{
		questions: make([]model.Question, 0, len(questions)),
		index:     make(map[int]int, len(questions)),
	}
	for i, question := range questions {
		if _, dup := q.index[question.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", ErrInvalidQuestionnaire, question.ID)
		}
		if question.Prompt == "" {
			return nil, fmt.Errorf("%w: question %d has no prompt", ErrInvalidQuestionnaire, question.ID)
		}
		switch question.Kind {
		case model.QuestionKindRating:
			if len(question.Options) == 0 {
				return nil, fmt.Errorf("%w: rating question %d has no options", ErrInvalidQuestionnaire, question.ID)
			}
			for j := 1; j < len(question.Options); j++ {
				if question.Options[j] <= question.Options[j-1] {
					return nil, fmt.Errorf("%w: options of question %d must be strictly ascending", ErrInvalidQuestionnaire, question.ID)
				}
			}
		case model.QuestionKindText:
			if len(question.Options) > 0 {
				return nil, fmt.Errorf("%w: text question %d cannot have options", ErrInvalidQuestionnaire, question.ID)
			}
		default:
			return nil, fmt.Errorf("%w: question %d has unknown kind %q", ErrInvalidQuestionnaire, question.ID, question.Kind)
		}

		q.index[question.ID] = i
		q.questions = append(q.questions, question.Clone())
	}
	return q, nil
}

// Len returns N
func (q *Questionnaire) Len() int { return len(q.questions) }

// At returns a copy of the question at position i
func (q *Questionnaire) At(i int) model.Question {
	return q.questions[i].Clone()
}

// Position returns the index of a question id
func (q *Questionnaire) Position(id int) (int, bool) {
	i, ok := q.index[id]
	return i, ok
}

// Questions returns a copy of the ordered list
func (q *Questionnaire) Questions() []model.Question {
	out := make([]model.Question, len(q.questions))
	for i, question := range q.questions {
		out[i] = question.Clone()
	}
	return out
}

type questionnaireFile struct {
	Questions []model.Question `yaml:"questions"`
}

// ParseQuestionnaire reads the YAML form:
//
//	questions:
//	  - id: 1
//	    prompt: How satisfied are you with our products?
//	    kind: rating
//	    options: [1, 2, 3, 4, 5]
func ParseQuestionnaire(data []byte) (*Questionnaire, error) {
	var f questionnaireFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse questionnaire: %w", err)
	}
	return NewQuestionnaire(f.Questions)
}

// LoadQuestionnaire reads a YAML questionnaire file
func LoadQuestionnaire(path string) (*Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire: %w", err)
	}
	return ParseQuestionnaire(data)
}

// MarshalYAML renders the questionnaire in the same form ParseQuestionnaire reads
func (q *Questionnaire) MarshalYAML() (interface{}, error) {
	return questionnaireFile{Questions: q.Questions()}, nil
}

// DefaultQuestions is the built-in customer feedback survey
func DefaultQuestions() []model.Question {
	return []model.Question{
		{
			ID:      1,
			Prompt:  "How satisfied are you with our products?",
			Kind:    model.QuestionKindRating,
			Options: []int{1, 2, 3, 4, 5},
		},
		{
			ID:      2,
			Prompt:  "How fair are the prices compared to similar retailers?",
			Kind:    model.QuestionKindRating,
			Options: []int{1, 2, 3, 4, 5},
		},
		{
			ID:      3,
			Prompt:  "How satisfied are you with the value for money of your purchase?",
			Kind:    model.QuestionKindRating,
			Options: []int{1, 2, 3, 4, 5},
		},
		{
			ID:      4,
			Prompt:  "On a scale of 1-10, how likely are you to recommend us to your friends and family?",
			Kind:    model.QuestionKindRating,
			Options: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
		{
			ID:     5,
			Prompt: "What could we do to improve our service?",
			Kind:   model.QuestionKindText,
		},
	}
}

// DefaultQuestionnaire returns the built-in questionnaire
func DefaultQuestionnaire() *Questionnaire {
	q, err := NewQuestionnaire(DefaultQuestions())
	if err != nil {
		panic(err)
	}
	return q
}
