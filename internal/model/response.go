package model

import "time"

// Response is a confirmed, submitted survey
type Response struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	SessionID   string    `json:"sessionId" bson:"sessionId"`
	Channel     string    `json:"channel" bson:"channel"` // "web", "telegram"
	Answers     []Answer  `json:"answers" bson:"answers"`
	StartedAt   time.Time `json:"startedAt" bson:"startedAt"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// RatingAnswer returns the rating recorded for a question, if any
func (r *Response) RatingAnswer(questionID int) (int, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID && a.Value.Kind == QuestionKindRating {
			return a.Value.Rating, true
		}
	}
	return 0, false
}

// QuestionStats aggregates answers to one question
type QuestionStats struct {
	QuestionID int           `json:"questionId"`
	Prompt     string        `json:"prompt"`
	Kind       QuestionKind  `json:"kind"`
	Counts     map[int]int64 `json:"counts,omitempty"` // rating value -> responses
	Total      int64         `json:"total"`
	Average    float64       `json:"average,omitempty"`
	Texts      []string      `json:"texts,omitempty"` // most recent text answers
}

// Questionnaire is a named, stored question set
type Questionnaire struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	Name      string     `json:"name" bson:"name"`
	Questions []Question `json:"questions" bson:"questions"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// StatsReport is the host-facing summary of all submissions
type StatsReport struct {
	Responses int64           `json:"responses"`
	Questions []QuestionStats `json:"questions"`
}
