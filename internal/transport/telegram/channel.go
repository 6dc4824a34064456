package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// chatConfirmer asks for the submission confirmation with an inline Yes/No
// keyboard and waits for the matching callback
type chatConfirmer struct {
	bot    *Bot
	chatID int64
}

func (c *chatConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	reply := make(chan bool, 1)
	c.bot.mu.Lock()
	c.bot.chat(c.chatID).confirm = reply
	c.bot.mu.Unlock()

	defer func() {
		c.bot.mu.Lock()
		if st, ok := c.bot.chats[c.chatID]; ok && st.confirm == reply {
			st.confirm = nil
		}
		c.bot.mu.Unlock()
	}()

	msg := tgbotapi.NewMessage(c.chatID, prompt)
	msg.ReplyMarkup = confirmKeyboard()
	sent, err := c.bot.api.Send(msg)
	if err != nil {
		return false, fmt.Errorf("send confirmation prompt: %w", err)
	}
	defer c.clearKeyboard(sent.MessageID)

	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		c.bot.send(c.chatID, "No answer received, the survey was not submitted.")
		return false, ctx.Err()
	}
}

func (c *chatConfirmer) clearKeyboard(messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(c.chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := c.bot.api.Send(edit); err != nil {
		c.bot.log.Debug("failed to clear confirmation keyboard", zap.Int64("chat", c.chatID), zap.Error(err))
	}
}
