package repository

import (
	"context"

	"github.com/ivanoskov/mani_bot/internal/model"
)

type Repository interface {
	// Категории
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategories(ctx context.Context) ([]model.Category, error)

	// Транзакции, сначала новые
	CreateTransaction(ctx context.Context, transaction *model.Transaction) error
	GetTransactions(ctx context.Context) ([]model.Transaction, error)

	// Пользователи
	AllowUser(ctx context.Context, userID int64) error
	IsUserAllowed(ctx context.Context, userID int64) (bool, error)

	Close() error
}
