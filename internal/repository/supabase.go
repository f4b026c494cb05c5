package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ivanoskov/mani_bot/internal/log"
	"github.com/ivanoskov/mani_bot/internal/model"
	"github.com/supabase-community/supabase-go"
)

const (
	tableCategories   = "categories"
	tableTransactions = "transactions"
	tableAllowedUsers = "allowed_users"
)

type SupabaseRepository struct {
	client *supabase.Client
	log    *log.Logger
}

type allowedUser struct {
	UserID int64 `json:"user_id"`
}

func NewSupabaseRepository(url, key string, logger *log.Logger) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseRepository{
		client: client,
		log:    logger.WithComponent("supabase"),
	}, nil
}

func (r *SupabaseRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	data, _, err := r.client.From(tableCategories).Insert(category, true, "id", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	// Парсим ответ для получения ID
	var created []model.Category
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created category: %w", err)
	}
	if len(created) > 0 {
		category.ID = created[0].ID
	}
	r.log.DebugContext(ctx, "category saved", "id", category.ID, "name", category.Name)
	return nil
}

func (r *SupabaseRepository) GetCategories(ctx context.Context) ([]model.Category, error) {
	data, _, err := r.client.From(tableCategories).
		Select("*", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	var categories []model.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	return categories, nil
}

func (r *SupabaseRepository) CreateTransaction(ctx context.Context, transaction *model.Transaction) error {
	_, _, err := r.client.From(tableTransactions).Insert(transaction, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	r.log.DebugContext(ctx, "transaction saved", "id", transaction.ID)
	return nil
}

// GetTransactions возвращает все транзакции, сначала новые. Строка с
// некорректной датой делает ответ целиком непригодным.
func (r *SupabaseRepository) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	data, count, err := r.client.From(tableTransactions).
		Select("*", "exact", false).
		Order("date", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	var transactions []model.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}
	r.log.DebugContext(ctx, "transactions fetched", "count", count)
	return transactions, nil
}

func (r *SupabaseRepository) AllowUser(ctx context.Context, userID int64) error {
	_, _, err := r.client.From(tableAllowedUsers).
		Insert(allowedUser{UserID: userID}, true, "user_id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to allow user %d: %w", userID, err)
	}
	return nil
}

func (r *SupabaseRepository) IsUserAllowed(ctx context.Context, userID int64) (bool, error) {
	data, _, err := r.client.From(tableAllowedUsers).
		Select("user_id", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return false, fmt.Errorf("failed to check user %d: %w", userID, err)
	}

	var users []allowedUser
	if err := json.Unmarshal(data, &users); err != nil {
		return false, fmt.Errorf("failed to parse allowed users: %w", err)
	}
	return len(users) > 0, nil
}

// Close нужен для совместимости с Repository; HTTP-клиент закрывать не нужно
func (r *SupabaseRepository) Close() error {
	return nil
}
