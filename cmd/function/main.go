package main

import (
	"context"
	"sync"

	"github.com/ivanoskov/mani_bot/internal/app"
	"github.com/ivanoskov/mani_bot/internal/config"
	"github.com/ivanoskov/mani_bot/internal/log"
)

// Request структура входящего запроса от API Gateway
type Request struct {
	Body string `json:"body"`
}

// Response структура ответа для API Gateway
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Приложение собирается один раз на экземпляр функции, чтобы состояние
// диалогов переживало отдельные вызовы.
var (
	initOnce sync.Once
	instance *app.App
	initErr  error
)

func loadApp(ctx context.Context) (*app.App, error) {
	initOnce.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			initErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			initErr = err
			return
		}
		logger := log.New(log.Config{
			Level:     log.ParseLevel(cfg.LogLevel),
			Component: "function",
		})
		instance, initErr = app.New(ctx, cfg, logger)
	})
	return instance, initErr
}

func Handler(ctx context.Context, request Request) (*Response, error) {
	a, err := loadApp(ctx)
	if err != nil {
		return errorResponse(err)
	}

	// Обработка webhook-обновления
	if err := a.Bot.HandleWebhook(ctx, []byte(request.Body)); err != nil {
		return errorResponse(err)
	}

	return &Response{
		StatusCode: 200,
		Body:       "",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func errorResponse(err error) (*Response, error) {
	return &Response{
		StatusCode: 500,
		Body:       err.Error(),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func main() {
	// Точка входа для локального тестирования
}
