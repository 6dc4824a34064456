package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"feedbacksurvey/internal/model"
)

// Callback payloads
const (
	cbStart      = "start"
	cbPrevious   = "prev"
	cbNext       = "next"
	cbSubmit     = "submit"
	cbConfirmYes = "confirm_yes"
	cbConfirmNo  = "confirm_no"
	cbOption     = "opt:"
)

const optionsPerRow = 5

// renderText builds the message body for a view
func renderText(v model.SurveyView) string {
	var b strings.Builder
	b.WriteString(v.Title)

	switch v.Screen {
	case model.ScreenWelcome:
		b.WriteString("\n\nPress Start to begin.")
	case model.ScreenThankYou:
		if v.Message != "" {
			b.WriteString("\n\n")
			b.WriteString(v.Message)
		}
		b.WriteString("\n\nSend /start to take the survey again.")
	case model.ScreenQuestion:
		if v.Question == nil {
			break
		}
		b.WriteString("\n\n")
		b.WriteString(v.Question.Prompt)
		if v.Question.Kind == model.QuestionKindText {
			if v.Answered {
				fmt.Fprintf(&b, "\n\nYour answer: %s", v.Text)
				b.WriteString("\nSend another message to change it.")
			} else {
				b.WriteString("\n\nReply with your answer.")
			}
		}
	}
	return b.String()
}

// renderKeyboard builds the inline keyboard for a view, nil when there is nothing to press
func renderKeyboard(v model.SurveyView) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	switch v.Screen {
	case model.ScreenWelcome:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Start", cbStart),
		))
	case model.ScreenQuestion:
		var row []tgbotapi.InlineKeyboardButton
		for _, opt := range v.Options {
			label := strconv.Itoa(opt.Value)
			if opt.Selected {
				label = "✅ " + label
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbOption+strconv.Itoa(opt.Value)))
			if len(row) == optionsPerRow {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}

		var nav []tgbotapi.InlineKeyboardButton
		if v.CanPrevious {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀ Previous", cbPrevious))
		}
		if v.CanNext {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶", cbNext))
		}
		if v.CanSubmit {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Submit", cbSubmit))
		}
		if len(nav) > 0 {
			rows = append(rows, nav)
		}
	}

	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// confirmKeyboard is the Yes/No prompt shown before a submission is recorded
func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	yes := tgbotapi.NewInlineKeyboardButtonData("Yes", cbConfirmYes)
	no := tgbotapi.NewInlineKeyboardButtonData("No", cbConfirmNo)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(yes, no))
}

// parseOption extracts the rating from an "opt:<n>" payload
func parseOption(data string) (int, bool) {
	if !strings.HasPrefix(data, cbOption) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(data, cbOption))
	if err != nil {
		return 0, false
	}
	return n, true
}
