package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidAnswerValue is returned when an answer payload is neither a number nor a string
var ErrInvalidAnswerValue = errors.New("answer must be an integer or a string")

// AnswerValue holds either a rating or a text snapshot.
// On the wire it is a bare JSON number or string, matching {"questionId": 1, "answer": 3}.
type AnswerValue struct {
	Kind   QuestionKind `bson:"kind"`
	Rating int          `bson:"rating,omitempty"`
	Text   string       `bson:"text,omitempty"`
}

// RatingValue builds a rating answer
func RatingValue(v int) AnswerValue {
	return AnswerValue{Kind: QuestionKindRating, Rating: v}
}

// TextValue builds a text answer
func TextValue(s string) AnswerValue {
	return AnswerValue{Kind: QuestionKindText, Text: s}
}

// Interface returns the raw value (int or string)
func (v AnswerValue) Interface() interface{} {
	if v.Kind == QuestionKindText {
		return v.Text
	}
	return v.Rating
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ErrInvalidAnswerValue
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidAnswerValue
	}
	*v = RatingValue(n)
	return nil
}

// Answer is a recorded response to one question
type Answer struct {
	QuestionID int         `json:"questionId" bson:"questionId"`
	Value      AnswerValue `json:"answer" bson:"answer"`
}
