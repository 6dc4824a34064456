package survey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"feedbacksurvey/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type toastRecorder struct {
	mu    sync.Mutex
	toast []model.Notification
}

func (r *toastRecorder) Notify(n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toast = append(r.toast, n)
}

func (r *toastRecorder) all() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.toast...)
}

func newTestController(t *testing.T, confirm Confirmer) (*Controller, *toastRecorder) {
	t.Helper()
	rec := &toastRecorder{}
	c := New(DefaultQuestionnaire(), Options{
		Notifier:   rec,
		Confirmer:  confirm,
		ResetDelay: 30 * time.Millisecond,
	})
	t.Cleanup(c.Close)
	return c, rec
}

func answerAll(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.AnswerRating(4))
	require.NoError(t, c.Next())
	require.NoError(t, c.AnswerRating(3))
	require.NoError(t, c.Next())
	require.NoError(t, c.AnswerRating(5))
	require.NoError(t, c.Next())
	require.NoError(t, c.AnswerRating(9))
	require.NoError(t, c.Next())
	require.NoError(t, c.AnswerText("faster delivery"))
}

func TestController_StartsAtWelcome(t *testing.T) {
	c, _ := newTestController(t, nil)

	st := c.State()
	assert.Equal(t, -1, st.CurrentIndex)
	assert.False(t, st.Completed)
	assert.Empty(t, st.Answers)

	v := c.View()
	assert.Equal(t, model.ScreenWelcome, v.Screen)
	assert.Equal(t, WelcomeTitle, v.Title)
	assert.Equal(t, 5, v.Total)

	require.NoError(t, c.Start())
	assert.Equal(t, 0, c.State().CurrentIndex)
	assert.ErrorIs(t, c.Start(), ErrInvalidTransition)
}

func TestController_OperationsOutsideActiveState(t *testing.T) {
	c, rec := newTestController(t, nil)

	assert.ErrorIs(t, c.AnswerRating(3), ErrInvalidTransition)
	assert.ErrorIs(t, c.Next(), ErrInvalidTransition)
	assert.ErrorIs(t, c.Previous(), ErrInvalidTransition)

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, rec.all())
}

func TestController_AnswerUpsertsSingleEntry(t *testing.T) {
	c, _ := newTestController(t, nil)
	require.NoError(t, c.Start())

	for _, v := range []int{1, 5, 5, 2} {
		require.NoError(t, c.AnswerRating(v))
	}

	st := c.State()
	require.Len(t, st.Answers, 1)
	assert.Equal(t, model.Answer{QuestionID: 1, Value: model.RatingValue(2)}, st.Answers[0])
}

func TestController_TextAnswerKeepsLatestSnapshot(t *testing.T) {
	c, _ := newTestController(t, nil)
	require.NoError(t, c.Start())
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Next())
	}

	for _, snapshot := range []string{"f", "fa", "fas", "fast"} {
		require.NoError(t, c.AnswerText(snapshot))
	}

	st := c.State()
	require.Len(t, st.Answers, 1)
	assert.Equal(t, 5, st.Answers[0].QuestionID)
	assert.Equal(t, "fast", st.Answers[0].Value.Text)
	assert.Equal(t, "fast", c.View().Text)
}

func TestController_AnswerValidation(t *testing.T) {
	c, _ := newTestController(t, nil)
	require.NoError(t, c.Start())

	assert.ErrorIs(t, c.AnswerRating(0), ErrInvalidOption)
	assert.ErrorIs(t, c.AnswerRating(6), ErrInvalidOption)
	assert.ErrorIs(t, c.AnswerText("great"), ErrKindMismatch)
	assert.Empty(t, c.State().Answers)

	// question 4 accepts 1..10
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Next())
	}
	assert.NoError(t, c.AnswerRating(10))
	assert.ErrorIs(t, c.AnswerRating(11), ErrInvalidOption)

	require.NoError(t, c.Next())
	assert.ErrorIs(t, c.AnswerRating(3), ErrKindMismatch)
}

func TestController_NavigationNeverMutatesAnswers(t *testing.T) {
	c, _ := newTestController(t, nil)
	require.NoError(t, c.Start())
	require.NoError(t, c.AnswerRating(3))
	before := c.State().Answers

	assert.ErrorIs(t, c.Previous(), ErrInvalidTransition)
	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	require.NoError(t, c.Previous())
	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	assert.Equal(t, 4, c.State().CurrentIndex)
	assert.ErrorIs(t, c.Next(), ErrInvalidTransition)

	assert.Equal(t, before, c.State().Answers)
}

func TestController_FirstQuestionScenario(t *testing.T) {
	c, rec := newTestController(t, nil)

	require.NoError(t, c.Start())
	require.NoError(t, c.AnswerRating(3))
	assert.Equal(t, []model.Answer{{QuestionID: 1, Value: model.RatingValue(3)}}, c.State().Answers)

	require.NoError(t, c.Next())
	assert.Equal(t, 1, c.State().CurrentIndex)

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SubmitIncomplete, res.Outcome)
	assert.Equal(t, []int{2, 3, 4, 5}, res.Missing)
	assert.Equal(t, 1, c.State().CurrentIndex)

	toasts := rec.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, model.NotificationError, toasts[0].Kind)
}

func TestController_SubmitIncompleteAtLastQuestion(t *testing.T) {
	confirmCalled := false
	c, rec := newTestController(t, ConfirmerFunc(func(context.Context, string) (bool, error) {
		confirmCalled = true
		return true, nil
	}))
	require.NoError(t, c.Start())
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Next())
	}
	require.NoError(t, c.AnswerText("more colours"))
	before := c.State()

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SubmitIncomplete, res.Outcome)
	assert.Equal(t, []int{1, 2, 3, 4}, res.Missing)
	assert.False(t, confirmCalled)
	assert.Equal(t, before, c.State())

	toasts := rec.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, model.NotificationError, toasts[0].Kind)
	assert.Equal(t, MessageIncomplete, toasts[0].Message)
	assert.Equal(t, DefaultToastPosition, toasts[0].Position)
	assert.EqualValues(t, 1000, toasts[0].AutoCloseMS)
}

func TestController_SubmitDeclined(t *testing.T) {
	var prompts []string
	c, rec := newTestController(t, ConfirmerFunc(func(_ context.Context, prompt string) (bool, error) {
		prompts = append(prompts, prompt)
		return false, nil
	}))
	require.NoError(t, c.Start())
	answerAll(t, c)
	before := c.State()

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SubmitDeclined, res.Outcome)
	assert.Equal(t, []string{ConfirmPrompt}, prompts)
	assert.Equal(t, before, c.State())
	assert.Empty(t, rec.all())
}

func TestController_SubmitConfirmerError(t *testing.T) {
	boom := errors.New("prompt unavailable")
	c, _ := newTestController(t, ConfirmerFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}))
	require.NoError(t, c.Start())
	answerAll(t, c)

	res, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, SubmitDeclined, res.Outcome)
	assert.Equal(t, 4, c.State().CurrentIndex)
	assert.NoError(t, c.Previous())
}

func TestController_SubmitAcceptedThenResets(t *testing.T) {
	var (
		mu        sync.Mutex
		submitted []Submission
		changes   int
	)
	rec := &toastRecorder{}
	c := New(DefaultQuestionnaire(), Options{
		Notifier:   rec,
		Confirmer:  AutoConfirm(true),
		ResetDelay: 30 * time.Millisecond,
		OnSubmit: func(s Submission) {
			mu.Lock()
			defer mu.Unlock()
			submitted = append(submitted, s)
		},
		OnChange: func(model.SurveyState) {
			mu.Lock()
			defer mu.Unlock()
			changes++
		},
	})
	defer c.Close()

	require.NoError(t, c.Start())
	answerAll(t, c)

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SubmitAccepted, res.Outcome)

	st := c.State()
	assert.True(t, st.Completed)
	assert.Equal(t, -1, st.CurrentIndex)
	assert.Len(t, st.Answers, 5)
	assert.Equal(t, model.ScreenThankYou, c.View().Screen)

	toasts := rec.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, model.NotificationSuccess, toasts[0].Kind)
	assert.Equal(t, MessageSubmitted, toasts[0].Message)

	mu.Lock()
	require.Len(t, submitted, 1)
	assert.Len(t, submitted[0].Answers, 5)
	assert.False(t, submitted[0].StartedAt.IsZero())
	mu.Unlock()

	// no edit after submit
	assert.ErrorIs(t, c.Start(), ErrInvalidTransition)
	assert.ErrorIs(t, c.AnswerRating(1), ErrInvalidTransition)

	require.Eventually(t, func() bool {
		return !c.State().Completed
	}, time.Second, 5*time.Millisecond)

	st = c.State()
	assert.Equal(t, -1, st.CurrentIndex)
	assert.Empty(t, st.Answers)
	assert.Equal(t, model.ScreenWelcome, c.View().Screen)

	mu.Lock()
	// start, nine answer/next steps, submit, reset
	assert.Equal(t, 12, changes)
	mu.Unlock()

	require.NoError(t, c.Start())
}

func TestController_SubmitFromEarlierQuestionOnlyAcknowledges(t *testing.T) {
	confirmCalled := false
	c, rec := newTestController(t, ConfirmerFunc(func(context.Context, string) (bool, error) {
		confirmCalled = true
		return true, nil
	}))
	require.NoError(t, c.Start())
	answerAll(t, c)
	require.NoError(t, c.Previous())
	require.NoError(t, c.Previous())
	before := c.State()

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SubmitAcknowledged, res.Outcome)
	assert.False(t, confirmCalled)
	assert.Equal(t, before, c.State())

	toasts := rec.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, model.NotificationSuccess, toasts[0].Kind)
}

func TestController_CloseSuppressesReset(t *testing.T) {
	c, _ := newTestController(t, AutoConfirm(true))
	require.NoError(t, c.Start())
	answerAll(t, c)

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	c.Close()

	time.Sleep(80 * time.Millisecond)
	st := c.State()
	assert.True(t, st.Completed)
	assert.Len(t, st.Answers, 5)
	assert.ErrorIs(t, c.Start(), ErrClosed)
}

func TestController_MutationsBlockedWhileConfirming(t *testing.T) {
	release := make(chan bool)
	c, _ := newTestController(t, ConfirmerFunc(func(ctx context.Context, _ string) (bool, error) {
		select {
		case v := <-release:
			return v, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}))
	require.NoError(t, c.Start())
	answerAll(t, c)

	done := make(chan SubmitResult, 1)
	go func() {
		res, _ := c.Submit(context.Background())
		done <- res
	}()

	require.Eventually(t, func() bool {
		return c.View().AwaitingConfirmation
	}, time.Second, 2*time.Millisecond)

	assert.ErrorIs(t, c.Previous(), ErrAwaitingConfirmation)
	assert.ErrorIs(t, c.AnswerText("changed"), ErrAwaitingConfirmation)
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAwaitingConfirmation)

	release <- false
	res := <-done
	assert.Equal(t, SubmitDeclined, res.Outcome)
	assert.False(t, c.View().AwaitingConfirmation)
	assert.Equal(t, "faster delivery", c.View().Text)
}

func TestController_ViewForRatingQuestion(t *testing.T) {
	c, _ := newTestController(t, nil)
	require.NoError(t, c.Start())
	require.NoError(t, c.AnswerRating(2))

	v := c.View()
	assert.Equal(t, model.ScreenQuestion, v.Screen)
	assert.Equal(t, "Question 1 of 5", v.Title)
	require.NotNil(t, v.Question)
	assert.Equal(t, 1, v.Question.ID)
	require.Len(t, v.Options, 5)
	for _, opt := range v.Options {
		assert.Equal(t, opt.Value == 2, opt.Selected, "option %d", opt.Value)
	}
	assert.True(t, v.Answered)
	assert.False(t, v.CanPrevious)
	assert.True(t, v.CanNext)
	assert.False(t, v.CanSubmit)

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Next())
	}
	v = c.View()
	assert.Nil(t, v.Options)
	assert.True(t, v.CanPrevious)
	assert.False(t, v.CanNext)
	assert.True(t, v.CanSubmit)
	assert.False(t, v.Answered)
}
