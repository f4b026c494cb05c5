package bot

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivanoskov/mani_bot/internal/conversation"
	"github.com/ivanoskov/mani_bot/internal/log"
)

// API - часть tgbotapi.BotAPI, которой пользуется бот
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api    API
	router *conversation.Router
	log    *log.Logger
}

// New собирает бота поверх клиента Telegram (обычно *tgbotapi.BotAPI)
func New(api API, router *conversation.Router, logger *log.Logger) *Bot {
	return &Bot{
		api:    api,
		router: router,
		log:    logger.WithComponent("bot"),
	}
}

// Start запускает бота в режиме long polling и работает до отмены ctx
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.handleUpdate(ctx, update); err != nil {
				// Логируем ошибку, но продолжаем работу
				b.log.ErrorContext(ctx, "error handling update", "update_id", update.UpdateID, "error", err)
			}
		}
	}
}

// HandleWebhook - точка входа для обработки входящих webhook-обновлений
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("decode update: %w", err)
	}
	return b.handleUpdate(ctx, update)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		if update.Message.IsCommand() {
			return b.handleCommand(ctx, update.Message)
		}
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID

	var prompt conversation.Prompt
	switch message.Command() {
	case "start":
		prompt = b.router.OnStartCommand(ctx, userID)
	case "stat":
		prompt = b.router.OnStatRequest(ctx, userID)
	case "cancel", "back":
		prompt = b.router.OnBack(ctx, userID)
	default:
		b.log.DebugContext(ctx, "unknown command", "user_id", userID, "command", message.Command())
		return nil
	}
	return b.reply(message.Chat.ID, prompt)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.From == nil {
		return nil
	}
	chatID := callback.From.ID
	if callback.Message != nil && callback.Message.Chat != nil {
		chatID = callback.Message.Chat.ID
	}

	prompt := b.router.OnCallback(ctx, callback.From.ID, callback.Data)

	// Отвечаем на callback, чтобы убрать loading indicator
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.WarnContext(ctx, "failed to answer callback", "callback_id", callback.ID, "error", err)
	}

	return b.reply(chatID, prompt)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Text == "" {
		return nil
	}
	prompt := b.router.OnText(ctx, message.From.ID, message.Text)
	return b.reply(message.Chat.ID, prompt)
}

// reply отправляет текст ответа и, если есть, картинку с графиком
func (b *Bot) reply(chatID int64, prompt conversation.Prompt) error {
	text := prompt.Text
	if prompt.Err != nil {
		text = "❌ " + text
	}

	msg := tgbotapi.NewMessage(chatID, text)
	switch {
	case len(prompt.Options) > 0:
		msg.ReplyMarkup = optionsKeyboard(prompt.Options)
	case len(prompt.Menu) > 0:
		msg.ReplyMarkup = menuKeyboard(prompt.Menu)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	if prompt.Attachment == nil {
		return nil
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  prompt.Attachment.Name,
		Bytes: prompt.Attachment.Data,
	})
	if _, err := b.api.Send(photo); err != nil {
		return fmt.Errorf("send chart: %w", err)
	}
	return nil
}
