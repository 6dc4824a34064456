// Package survey implements the questionnaire state machine:
// Welcome -> Question[1..N] -> (confirmation) -> Thank-you -> Welcome.
//
// The controller knows nothing about rendering. Presentation channels read
// View(), call the five operations, and receive toasts through a Notifier and
// the submit confirmation through a Confirmer.
package survey

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"feedbacksurvey/internal/model"
)

const (
	DefaultResetDelay     = 2000 * time.Millisecond
	DefaultToastAutoClose = 1000 * time.Millisecond
	DefaultToastPosition  = "top-center"
)

// SubmitOutcome describes what a submit call did
type SubmitOutcome string

const (
	SubmitIncomplete SubmitOutcome = "incomplete" // validation failed, error toast
	SubmitDeclined   SubmitOutcome = "declined"   // respondent said no
	SubmitAccepted   SubmitOutcome = "accepted"   // completed, reset scheduled
	// SubmitAcknowledged: submit from a non-final question with every answer
	// present. Only the success toast fires; the state does not move.
	SubmitAcknowledged SubmitOutcome = "acknowledged"
)

// SubmitResult is returned by Submit
type SubmitResult struct {
	Outcome SubmitOutcome
	Missing []int // unanswered question ids, SubmitIncomplete only
}

// Submission is handed to Options.OnSubmit after a confirmed submit
type Submission struct {
	Answers     []model.Answer
	StartedAt   time.Time
	SubmittedAt time.Time
}

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Notifier       Notifier
	Confirmer      Confirmer // defaults to AutoConfirm(true)
	ResetDelay     time.Duration
	ToastAutoClose time.Duration
	ToastPosition  string

	// OnChange runs after every transition, including the delayed reset.
	OnChange func(model.SurveyState)
	// OnSubmit runs once per confirmed submission.
	OnSubmit func(Submission)

	Logger *zap.Logger
	Now    func() time.Time
}

// Controller owns one SurveyState
type Controller struct {
	q    *Questionnaire
	opts Options
	log  *zap.Logger

	mu         sync.Mutex
	index      int
	answers    map[int]model.AnswerValue
	completed  bool
	confirming bool
	closed     bool
	resetTimer *time.Timer
	startedAt  time.Time
	lastActive time.Time
}

// New creates a controller in the Welcome state
func New(q *Questionnaire, opts Options) *Controller {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Confirmer == nil {
		opts.Confirmer = AutoConfirm(true)
	}
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = DefaultResetDelay
	}
	if opts.ToastAutoClose <= 0 {
		opts.ToastAutoClose = DefaultToastAutoClose
	}
	if opts.ToastPosition == "" {
		opts.ToastPosition = DefaultToastPosition
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Controller{
		q:          q,
		opts:       opts,
		log:        log,
		index:      -1,
		answers:    make(map[int]model.AnswerValue, q.Len()),
		lastActive: opts.Now(),
	}
}

// Questionnaire returns the questions this controller walks through
func (c *Controller) Questionnaire() *Questionnaire { return c.q }

// Start moves Welcome -> Active(0)
func (c *Controller) Start() error {
	return c.mutate("start", func() error {
		if c.completed || c.index != -1 {
			return fmt.Errorf("%w: survey already started", ErrInvalidTransition)
		}
		c.index = 0
		c.startedAt = c.opts.Now()
		return nil
	})
}

// Answer upserts the answer for the current question
func (c *Controller) Answer(v model.AnswerValue) error {
	return c.mutate("answer", func() error {
		if !c.activeLocked() {
			return fmt.Errorf("%w: no question is showing", ErrInvalidTransition)
		}
		q := &c.q.questions[c.index]
		if v.Kind != q.Kind {
			return fmt.Errorf("%w: question %d expects %s", ErrKindMismatch, q.ID, q.Kind)
		}
		if q.Kind == model.QuestionKindRating && !q.Allows(v.Rating) {
			return fmt.Errorf("%w: %d for question %d", ErrInvalidOption, v.Rating, q.ID)
		}
		c.answers[q.ID] = v
		return nil
	})
}

// AnswerRating selects a rating option on the current question
func (c *Controller) AnswerRating(value int) error {
	return c.Answer(model.RatingValue(value))
}

// AnswerText stores the latest text snapshot for the current question
func (c *Controller) AnswerText(text string) error {
	return c.Answer(model.TextValue(text))
}

// Previous moves Active(i) -> Active(i-1)
func (c *Controller) Previous() error {
	return c.mutate("previous", func() error {
		if !c.activeLocked() || c.index == 0 {
			return fmt.Errorf("%w: no previous question", ErrInvalidTransition)
		}
		c.index--
		return nil
	})
}

// Next moves Active(i) -> Active(i+1) without requiring an answer
func (c *Controller) Next() error {
	return c.mutate("next", func() error {
		if !c.activeLocked() || c.index >= c.q.Len()-1 {
			return fmt.Errorf("%w: no next question", ErrInvalidTransition)
		}
		c.index++
		return nil
	})
}

// Submit validates, confirms and completes the survey.
// The Confirmer is called without holding the lock; other mutations fail
// with ErrAwaitingConfirmation until it returns.
func (c *Controller) Submit(ctx context.Context) (SubmitResult, error) {
	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return SubmitResult{}, err
	}
	if !c.activeLocked() {
		c.mu.Unlock()
		return SubmitResult{}, fmt.Errorf("%w: no question is showing", ErrInvalidTransition)
	}
	c.lastActive = c.opts.Now()

	if missing := c.missingLocked(); len(missing) > 0 {
		c.mu.Unlock()
		c.log.Debug("submit rejected", zap.Ints("missing", missing))
		c.notify(model.NotificationError, MessageIncomplete)
		return SubmitResult{Outcome: SubmitIncomplete, Missing: missing}, nil
	}

	if c.index != c.q.Len()-1 {
		c.mu.Unlock()
		c.notify(model.NotificationSuccess, MessageSubmitted)
		return SubmitResult{Outcome: SubmitAcknowledged}, nil
	}

	c.confirming = true
	c.mu.Unlock()

	ok, err := c.opts.Confirmer.Confirm(ctx, ConfirmPrompt)

	c.mu.Lock()
	c.confirming = false
	if c.closed {
		c.mu.Unlock()
		return SubmitResult{}, ErrClosed
	}
	now := c.opts.Now()
	c.lastActive = now
	if err != nil {
		c.mu.Unlock()
		return SubmitResult{Outcome: SubmitDeclined}, fmt.Errorf("confirm submission: %w", err)
	}
	if !ok {
		c.mu.Unlock()
		return SubmitResult{Outcome: SubmitDeclined}, nil
	}

	c.completed = true
	c.index = -1
	sub := Submission{
		Answers:     c.answersLocked(),
		StartedAt:   c.startedAt,
		SubmittedAt: now,
	}
	c.resetTimer = time.AfterFunc(c.opts.ResetDelay, c.reset)
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.Debug("survey submitted", zap.Int("answers", len(sub.Answers)))
	c.notify(model.NotificationSuccess, MessageSubmitted)
	c.changed(st)
	if c.opts.OnSubmit != nil {
		c.opts.OnSubmit(sub)
	}
	return SubmitResult{Outcome: SubmitAccepted}, nil
}

// Close tears the controller down. A pending reset is cancelled, and one
// already in flight becomes a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

// Closed reports whether Close was called
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// LastActive returns the time of the last event
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// State returns a copy of the raw state
func (c *Controller) State() model.SurveyState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// View returns the render contract for the current state
func (c *Controller) View() model.SurveyView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := model.SurveyView{
		Index:                c.index,
		Total:                c.q.Len(),
		AnsweredCount:        len(c.answers),
		Completed:            c.completed,
		AwaitingConfirmation: c.confirming,
	}

	switch {
	case c.completed:
		v.Screen = model.ScreenThankYou
		v.Title = ThankYouTitle
		v.Message = ThankYouDetail
	case c.index == -1:
		v.Screen = model.ScreenWelcome
		v.Title = WelcomeTitle
	default:
		q := c.q.At(c.index)
		current, answered := c.answers[q.ID]

		v.Screen = model.ScreenQuestion
		v.Title = fmt.Sprintf("Question %d of %d", c.index+1, c.q.Len())
		v.Question = &q
		v.Answered = answered
		if q.Kind == model.QuestionKindRating {
			v.Options = make([]model.OptionView, len(q.Options))
			for i, opt := range q.Options {
				v.Options[i] = model.OptionView{
					Value:    opt,
					Selected: answered && current.Rating == opt,
				}
			}
		} else if answered {
			v.Text = current.Text
		}
		v.CanPrevious = c.index > 0
		v.CanNext = c.index < c.q.Len()-1
		v.CanSubmit = c.index == c.q.Len()-1
	}
	return v
}

func (c *Controller) mutate(op string, fn func() error) error {
	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lastActive = c.opts.Now()
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.Debug("survey transition",
		zap.String("op", op),
		zap.Int("index", st.CurrentIndex),
		zap.Int("answers", len(st.Answers)),
	)
	c.changed(st)
	return nil
}

func (c *Controller) reset() {
	c.mu.Lock()
	if c.closed || !c.completed {
		c.mu.Unlock()
		return
	}
	c.index = -1
	c.completed = false
	c.answers = make(map[int]model.AnswerValue, c.q.Len())
	c.resetTimer = nil
	c.startedAt = time.Time{}
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.Debug("survey reset")
	c.changed(st)
}

func (c *Controller) guardLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.confirming {
		return ErrAwaitingConfirmation
	}
	return nil
}

func (c *Controller) activeLocked() bool {
	return !c.completed && c.index >= 0
}

func (c *Controller) missingLocked() []int {
	var missing []int
	for _, q := range c.q.questions {
		if _, ok := c.answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// answersLocked lists answers in questionnaire order
func (c *Controller) answersLocked() []model.Answer {
	out := make([]model.Answer, 0, len(c.answers))
	for _, q := range c.q.questions {
		if v, ok := c.answers[q.ID]; ok {
			out = append(out, model.Answer{QuestionID: q.ID, Value: v})
		}
	}
	return out
}

func (c *Controller) stateLocked() model.SurveyState {
	return model.SurveyState{
		CurrentIndex: c.index,
		Answers:      c.answersLocked(),
		Completed:    c.completed,
	}
}

func (c *Controller) notify(kind model.NotificationKind, message string) {
	c.opts.Notifier.Notify(model.Notification{
		Kind:        kind,
		Message:     message,
		Position:    c.opts.ToastPosition,
		AutoCloseMS: c.opts.ToastAutoClose.Milliseconds(),
		At:          c.opts.Now(),
	})
}

func (c *Controller) changed(st model.SurveyState) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(st)
	}
}
