package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivanoskov/mani_bot/internal/conversation"
)

// menuKeyboard - постоянная клавиатура с главными действиями в один ряд
func menuKeyboard(labels []string) tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(labels))
	for _, label := range labels {
		row = append(row, tgbotapi.NewKeyboardButton(label))
	}
	keyboard := tgbotapi.NewReplyKeyboard(row)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func optionsKeyboard(options []conversation.Option) tgbotapi.InlineKeyboardMarkup {
	var buttons [][]tgbotapi.InlineKeyboardButton

	for _, option := range options {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option.Label, option.Data),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(buttons...)
}
