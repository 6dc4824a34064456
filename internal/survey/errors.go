package survey

import "errors"

var (
	ErrInvalidQuestionnaire = errors.New("invalid questionnaire")
	ErrInvalidTransition    = errors.New("operation not allowed in current state")
	ErrInvalidOption        = errors.New("value is not a permitted option")
	ErrKindMismatch         = errors.New("answer kind does not match question kind")
	ErrAwaitingConfirmation = errors.New("submission is awaiting confirmation")
	ErrClosed               = errors.New("survey controller is closed")
)
