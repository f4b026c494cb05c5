package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivanoskov/mani_bot/internal/log"
	"github.com/ivanoskov/mani_bot/internal/model"
	"github.com/shopspring/decimal"
)

var ErrCategoryNotFound = errors.New("category not found")

// Repository определяет интерфейс для работы с хранилищем данных
type Repository interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, transaction *model.Transaction) error
	IsUserAllowed(ctx context.Context, userID int64) (bool, error)
}

// Ledger предоставляет боту доступ к пользователям, категориям и транзакциям
type Ledger struct {
	repo Repository
	now  func() time.Time
	log  *log.Logger
}

func NewLedger(repo Repository, logger *log.Logger) *Ledger {
	return &Ledger{
		repo: repo,
		now:  time.Now,
		log:  logger.WithComponent("ledger"),
	}
}

func (s *Ledger) IsUserAllowed(ctx context.Context, userID int64) (bool, error) {
	return s.repo.IsUserAllowed(ctx, userID)
}

func (s *Ledger) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.GetCategories(ctx)
}

// ListTransactions возвращает все транзакции, сначала новые
func (s *Ledger) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.repo.GetTransactions(ctx)
}

// AddTransaction сохраняет платеж за сегодняшний день. Сумма приходит
// положительной; для категорий расходов она сохраняется со знаком минус.
func (s *Ledger) AddTransaction(ctx context.Context, userID int64, categoryID string, amount decimal.Decimal) error {
	categories, err := s.repo.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}

	var category *model.Category
	for i := range categories {
		if categories[i].ID == categoryID {
			category = &categories[i]
			break
		}
	}
	if category == nil {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
	}

	now := s.now()
	transaction := &model.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     model.SignedAmount(category.Type, amount),
		Date:       model.DateOf(now),
		CreatedAt:  now,
	}
	transaction.GenerateID()

	if err := s.repo.CreateTransaction(ctx, transaction); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	s.log.DebugContext(ctx, "transaction created",
		"id", transaction.ID,
		"category", category.Name,
		"amount", transaction.Amount.String(),
		"date", transaction.Date.String())
	return nil
}
