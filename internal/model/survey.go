package model

import "time"

// Screen is the kind of screen the presentation layer should draw
type Screen string

const (
	ScreenWelcome  Screen = "welcome"
	ScreenQuestion Screen = "question"
	ScreenThankYou Screen = "thank_you"
)

// SurveyState is the raw controller state
type SurveyState struct {
	CurrentIndex int      `json:"currentIndex"` // -1 when not started or just completed
	Answers      []Answer `json:"answers"`
	Completed    bool     `json:"completed"`
}

// OptionView is one rating button
type OptionView struct {
	Value    int  `json:"value"`
	Selected bool `json:"selected"`
}

// SurveyView is the render contract consumed by every presentation channel
type SurveyView struct {
	Screen               Screen       `json:"screen"`
	Title                string       `json:"title"`
	Message              string       `json:"message,omitempty"`
	Index                int          `json:"index"`
	Total                int          `json:"total"`
	Question             *Question    `json:"question,omitempty"`
	Options              []OptionView `json:"options,omitempty"`
	Text                 string       `json:"text,omitempty"` // current text snapshot
	Answered             bool         `json:"answered"`
	AnsweredCount        int          `json:"answeredCount"`
	CanPrevious          bool         `json:"canPrevious"`
	CanNext              bool         `json:"canNext"`
	CanSubmit            bool         `json:"canSubmit"`
	Completed            bool         `json:"completed"`
	AwaitingConfirmation bool         `json:"awaitingConfirmation"`
}

// SessionSnapshot mirrors a hosted session into the cache
type SessionSnapshot struct {
	SessionID string      `json:"sessionId"`
	Channel   string      `json:"channel"`
	State     SurveyState `json:"state"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// OperationResult is returned by every session operation
type OperationResult struct {
	View          SurveyView     `json:"view"`
	Notifications []Notification `json:"notifications"`
	Outcome       string         `json:"outcome,omitempty"` // submit only
	Missing       []int          `json:"missing,omitempty"` // unanswered question ids on a failed submit
}

// SessionCreated is returned when a web session is opened
type SessionCreated struct {
	SessionID string     `json:"sessionId"`
	Token     string     `json:"token"`
	View      SurveyView `json:"view"`
}
