package survey

import (
	"context"

	"feedbacksurvey/internal/model"
)

// User-visible texts
const (
	MessageIncomplete = "Please answer all questions before submitting!"
	MessageSubmitted  = "Survey submitted successfully!"
	ConfirmPrompt     = "Are you sure you want to submit the survey?"

	WelcomeTitle   = "Welcome to the Survey!"
	ThankYouTitle  = "Thank you for your time!"
	ThankYouDetail = "You have successfully completed the survey."
)

// Notifier receives toasts. Implementations must not call back into the controller.
type Notifier interface {
	Notify(n model.Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n model.Notification)

func (f NotifierFunc) Notify(n model.Notification) { f(n) }

// Confirmer asks the respondent a blocking yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AutoConfirm always answers with the given value
func AutoConfirm(answer bool) Confirmer {
	return ConfirmerFunc(func(context.Context, string) (bool, error) {
		return answer, nil
	})
}

type nopNotifier struct{}

func (nopNotifier) Notify(model.Notification) {}
