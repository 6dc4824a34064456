package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"feedbacksurvey/internal/cache"
	"feedbacksurvey/internal/config"
	"feedbacksurvey/internal/repository"
	"feedbacksurvey/internal/service"
	"feedbacksurvey/internal/survey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const chatID int64 = 42

type fakeAPI struct {
	mu     sync.Mutex
	nextID int
	sent   []tgbotapi.Chattable
	toasts []string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok && cb.Text != "" {
		f.toasts = append(f.toasts, cb.Text)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// messages returns the text of every new message sent
func (f *fakeAPI) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastMessage() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if m, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return m
		}
	}
	return tgbotapi.MessageConfig{}
}

func (f *fakeAPI) lastEdit() tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if e, ok := f.sent[i].(tgbotapi.EditMessageTextConfig); ok {
			return e
		}
	}
	return tgbotapi.EditMessageTextConfig{}
}

func (f *fakeAPI) lastToast() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.toasts) == 0 {
		return ""
	}
	return f.toasts[len(f.toasts)-1]
}

func (f *fakeAPI) sawMessage(text string) bool {
	for _, m := range f.messages() {
		if m == text {
			return true
		}
	}
	return false
}

type botFixture struct {
	api      *fakeAPI
	bot      *Bot
	sessions *service.SessionService
}

func newBotFixture(t *testing.T, confirmTimeout time.Duration) *botFixture {
	t.Helper()
	log := zap.NewNop()
	q := survey.DefaultQuestionnaire()
	auth := service.NewAuthService(config.AuthConfig{JWTSecret: "tg-test"}, time.Hour)
	responses := service.NewResponseService(repository.NewMemoryResponseRepo(), cache.NewMemoryStatsCache(), q, log)
	sessions := service.NewSessionService(q, auth, responses, cache.NewMemorySessionCache(), service.SessionConfig{
		ResetDelay:     time.Second,
		ToastAutoClose: time.Second,
		ToastPosition:  "top-center",
		ConfirmTimeout: confirmTimeout,
		IdleTTL:        time.Minute,
	}, log)

	f := &botFixture{api: &fakeAPI{}, sessions: sessions}
	f.bot = New(f.api, sessions, log)
	t.Cleanup(func() {
		f.bot.forget(chatID)
		f.bot.Wait()
		sessions.Shutdown(context.Background())
	})
	return f
}

func (f *botFixture) command(cmd string) {
	text := "/" + cmd
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}})
}

func (f *botFixture) text(s string) {
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: s,
	}})
}

func (f *botFixture) press(data string) {
	f.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-" + data,
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}})
}

// answerAll walks from the welcome screen to the last question with every answer set
func (f *botFixture) answerAll() {
	f.command("start")
	f.press(cbStart)
	for _, v := range []string{"4", "3", "5", "9"} {
		f.press(cbOption + v)
		if v != "9" {
			f.press(cbNext)
		}
	}
	f.press(cbNext)
	f.text("more coffee")
}

func (f *botFixture) waitForPrompt(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.api.sawMessage(survey.ConfirmPrompt)
	}, time.Second, 5*time.Millisecond)
}

func TestBot_SurveyFlow(t *testing.T) {
	f := newBotFixture(t, 2*time.Second)

	f.command("start")
	welcome := f.api.lastMessage()
	assert.True(t, strings.HasPrefix(welcome.Text, survey.WelcomeTitle))
	assert.NotNil(t, welcome.ReplyMarkup)

	f.press(cbStart)
	assert.True(t, strings.HasPrefix(f.api.lastEdit().Text, "Question 1 of 5"))

	f.press(cbOption + "4")
	kb := f.api.lastEdit().ReplyMarkup
	require.NotNil(t, kb)
	assert.Equal(t, "✅ 4", kb.InlineKeyboard[0][3].Text)

	f.text("lovely")
	assert.Equal(t, "Please use the buttons to answer.", f.api.lastMessage().Text)

	f.press(cbPrevious)
	assert.Equal(t, "That action is not available right now.", f.api.lastToast())

	for _, v := range []string{"3", "5", "9"} {
		f.press(cbNext)
		f.press(cbOption + v)
	}
	f.press(cbNext)
	f.text("more coffee")
	assert.Contains(t, f.api.lastMessage().Text, "Your answer: more coffee")

	f.press(cbSubmit)
	f.waitForPrompt(t)
	f.press(cbConfirmYes)
	f.bot.Wait()

	assert.True(t, f.api.sawMessage(survey.MessageSubmitted))
	assert.True(t, strings.HasPrefix(f.api.lastEdit().Text, survey.ThankYouTitle))

	st, err := f.sessions.State(context.Background(), SessionID(chatID))
	require.NoError(t, err)
	assert.True(t, st.Completed)
}

func TestBot_IncompleteSubmit(t *testing.T) {
	f := newBotFixture(t, time.Second)

	f.command("start")
	f.press(cbStart)
	for i := 0; i < 4; i++ {
		f.press(cbNext)
	}
	f.press(cbSubmit)
	f.bot.Wait()

	assert.True(t, f.api.sawMessage(survey.MessageIncomplete))
	assert.False(t, f.api.sawMessage(survey.ConfirmPrompt))
}

func TestBot_ConfirmDeclined(t *testing.T) {
	f := newBotFixture(t, 2*time.Second)

	f.press(cbConfirmYes)
	assert.Equal(t, "Nothing to confirm.", f.api.lastToast())

	f.answerAll()
	f.press(cbSubmit)
	f.waitForPrompt(t)

	// other buttons are blocked while the prompt is open
	f.press(cbPrevious)
	assert.Equal(t, "Please answer the confirmation first.", f.api.lastToast())

	f.press(cbConfirmNo)
	f.bot.Wait()

	assert.False(t, f.api.sawMessage(survey.MessageSubmitted))
	st, err := f.sessions.State(context.Background(), SessionID(chatID))
	require.NoError(t, err)
	assert.False(t, st.Completed)
	assert.Equal(t, 4, st.CurrentIndex)
}

func TestBot_ConfirmTimeout(t *testing.T) {
	f := newBotFixture(t, 50*time.Millisecond)

	f.answerAll()
	f.press(cbSubmit)
	f.bot.Wait()

	assert.True(t, f.api.sawMessage(survey.ConfirmPrompt))
	assert.True(t, f.api.sawMessage("No answer received, the survey was not submitted."))
	st, err := f.sessions.State(context.Background(), SessionID(chatID))
	require.NoError(t, err)
	assert.False(t, st.Completed)
}

func TestBot_Cancel(t *testing.T) {
	f := newBotFixture(t, time.Second)

	f.command("cancel")
	assert.Equal(t, "No survey in progress.", f.api.lastMessage().Text)

	f.press(cbStart)
	assert.Equal(t, "No survey in progress. Send /start to begin.", f.api.lastToast())

	f.command("start")
	assert.True(t, f.sessions.Exists(SessionID(chatID)))
	f.command("cancel")
	assert.Equal(t, "Survey cancelled. Send /start to begin again.", f.api.lastMessage().Text)
	assert.False(t, f.sessions.Exists(SessionID(chatID)))

	f.command("help")
	assert.Equal(t, helpText, f.api.lastMessage().Text)
}
