package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"feedbacksurvey/internal/model"
	"feedbacksurvey/internal/service"
	"feedbacksurvey/internal/survey"
)

const helpText = "Commands:\n/start - open the survey\n/cancel - discard your answers"

// API is the subset of *tgbotapi.BotAPI the bot needs
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot renders survey sessions into Telegram chats. Each chat hosts one session.
type Bot struct {
	api      API
	sessions *service.SessionService
	log      *zap.Logger

	mu    sync.Mutex
	chats map[int64]*chatState

	wg sync.WaitGroup
}

type chatState struct {
	messageID int       // survey message edited in place by button presses
	confirm   chan bool // pending Yes/No, nil when none
}

// New creates a Telegram bot bound to the session service
func New(api API, sessions *service.SessionService, log *zap.Logger) *Bot {
	return &Bot{
		api:      api,
		sessions: sessions,
		log:      log,
		chats:    make(map[int64]*chatState),
	}
}

// SessionID is the hosted session id for a chat
func SessionID(chatID int64) string {
	return "tg_" + strconv.FormatInt(chatID, 10)
}

// Run handles updates until ctx is cancelled or the channel closes, then
// waits for in-flight submissions.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// Poll long-polls the Bot API until ctx is cancelled
func (b *Bot) Poll(ctx context.Context, api *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()
	b.log.Info("telegram bot polling", zap.String("account", api.Self.UserName))
	b.Run(ctx, updates)
}

// HandleUpdate dispatches one update. Submissions run in the background so the
// confirmation callback can be routed while they wait.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message == nil:
	case upd.Message.IsCommand():
		b.handleCommand(ctx, upd.Message)
	case upd.Message.Text != "":
		b.handleText(ctx, upd.Message)
	}
}

// Wait blocks until background submissions finish
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		view, err := b.sessions.Open(ctx, SessionID(chatID), service.ChannelTelegram, nil, &chatConfirmer{bot: b, chatID: chatID})
		if err != nil {
			b.reportError(chatID, "", err)
			return
		}
		b.render(chatID, view, true)
	case "cancel":
		b.forget(chatID)
		if err := b.sessions.Close(ctx, SessionID(chatID)); err != nil {
			if errors.Is(err, service.ErrSessionNotFound) {
				b.send(chatID, "No survey in progress.")
				return
			}
			b.reportError(chatID, "", err)
			return
		}
		b.send(chatID, "Survey cancelled. Send /start to begin again.")
	default:
		b.send(chatID, helpText)
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	view, err := b.sessions.View(ctx, SessionID(chatID))
	if err != nil {
		b.reportError(chatID, "", err)
		return
	}
	if view.Screen != model.ScreenQuestion || view.Question == nil || view.Question.Kind != model.QuestionKindText {
		b.send(chatID, "Please use the buttons to answer.")
		return
	}

	res, err := b.sessions.Answer(ctx, SessionID(chatID), model.TextValue(strings.TrimSpace(msg.Text)))
	if err != nil {
		b.reportError(chatID, "", err)
		return
	}
	b.deliver(chatID, "", res.Notifications)
	b.render(chatID, res.View, true)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		b.ack(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID
	id := SessionID(chatID)

	b.mu.Lock()
	b.chat(chatID).messageID = cb.Message.MessageID
	b.mu.Unlock()

	var (
		res *model.OperationResult
		err error
	)
	switch data := cb.Data; {
	case data == cbConfirmYes || data == cbConfirmNo:
		if b.resolveConfirm(chatID, data == cbConfirmYes) {
			b.ack(cb.ID, "")
		} else {
			b.ack(cb.ID, "Nothing to confirm.")
		}
		return
	case data == cbSubmit:
		b.ack(cb.ID, "")
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			res, err := b.sessions.Submit(ctx, id, nil)
			b.apply(chatID, "", res, err)
		}()
		return
	case data == cbStart:
		res, err = b.sessions.Start(ctx, id)
	case data == cbPrevious:
		res, err = b.sessions.Previous(ctx, id)
	case data == cbNext:
		res, err = b.sessions.Next(ctx, id)
	default:
		value, ok := parseOption(data)
		if !ok {
			b.ack(cb.ID, "Unknown action.")
			return
		}
		res, err = b.sessions.Answer(ctx, id, model.RatingValue(value))
	}
	b.apply(chatID, cb.ID, res, err)
}

// apply reports the outcome of a session operation and redraws the survey message
func (b *Bot) apply(chatID int64, callbackID string, res *model.OperationResult, err error) {
	if err != nil {
		b.reportError(chatID, callbackID, err)
		return
	}
	b.deliver(chatID, callbackID, res.Notifications)
	b.render(chatID, res.View, false)
}

// deliver shows notifications, the first as a callback toast when a callback is pending
func (b *Bot) deliver(chatID int64, callbackID string, notes []model.Notification) {
	if callbackID != "" && len(notes) == 0 {
		b.ack(callbackID, "")
		return
	}
	for i, n := range notes {
		if i == 0 && callbackID != "" {
			b.ack(callbackID, n.Message)
			continue
		}
		b.send(chatID, n.Message)
	}
}

func (b *Bot) reportError(chatID int64, callbackID string, err error) {
	var text string
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		text = "No survey in progress. Send /start to begin."
	case errors.Is(err, survey.ErrAwaitingConfirmation):
		text = "Please answer the confirmation first."
	case errors.Is(err, survey.ErrInvalidTransition):
		text = "That action is not available right now."
	case errors.Is(err, survey.ErrInvalidOption), errors.Is(err, survey.ErrKindMismatch):
		text = "That answer is not valid for this question."
	default:
		b.log.Error("telegram survey operation failed", zap.Int64("chat", chatID), zap.Error(err))
		text = "Something went wrong, please try again."
	}

	if callbackID != "" {
		b.ack(callbackID, text)
		return
	}
	b.send(chatID, text)
}

// render draws the view, editing the survey message unless fresh is set
func (b *Bot) render(chatID int64, view model.SurveyView, fresh bool) {
	text := renderText(view)
	kb := renderKeyboard(view)

	b.mu.Lock()
	msgID := b.chat(chatID).messageID
	b.mu.Unlock()

	if !fresh && msgID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
		edit.ReplyMarkup = kb
		if _, err := b.api.Send(edit); err != nil {
			b.log.Debug("failed to edit survey message", zap.Int64("chat", chatID), zap.Error(err))
		}
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Warn("failed to send survey message", zap.Int64("chat", chatID), zap.Error(err))
		return
	}
	b.mu.Lock()
	b.chat(chatID).messageID = sent.MessageID
	b.mu.Unlock()
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("failed to send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Debug("failed to answer callback", zap.Error(err))
	}
}

// resolveConfirm hands the respondent's Yes/No to a waiting confirmer
func (b *Bot) resolveConfirm(chatID int64, ok bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, found := b.chats[chatID]
	if !found || st.confirm == nil {
		return false
	}
	st.confirm <- ok
	st.confirm = nil
	return true
}

// forget drops chat state, declining any pending confirmation
func (b *Bot) forget(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.chats[chatID]; ok {
		if st.confirm != nil {
			st.confirm <- false
		}
		delete(b.chats, chatID)
	}
}

// chat returns the state for chatID, creating it. Callers hold b.mu.
func (b *Bot) chat(chatID int64) *chatState {
	st, ok := b.chats[chatID]
	if !ok {
		st = &chatState{}
		b.chats[chatID] = st
	}
	return st
}
