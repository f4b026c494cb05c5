package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ivanoskov/mani_bot/internal/log"
	"github.com/ivanoskov/mani_bot/internal/model"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// SQLiteRepository хранит данные в локальном файле. Суммы лежат в TEXT,
// чтобы не терять точность.
type SQLiteRepository struct {
	db  *sql.DB
	log *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// одно соединение: sqlite не любит параллельную запись
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db:  db,
		log: logger.WithComponent("sqlite"),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateCategory создает категорию или обновляет существующую с тем же ID
func (r *SQLiteRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	if !category.Type.Valid() {
		return fmt.Errorf("create category %q: invalid type %q", category.Name, category.Type)
	}
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, type, name) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET type = excluded.type, name = excluded.name`,
		category.ID, string(category.Type), category.Name)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, type, name FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var (
			cat          model.Category
			categoryType string
		)
		if err := rows.Scan(&cat.ID, &categoryType, &cat.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cat.Type = model.CategoryType(categoryType)
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, transaction *model.Transaction) error {
	transaction.GenerateID()
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, category_id, amount, date, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		transaction.ID,
		transaction.CategoryID,
		transaction.Amount.String(),
		transaction.Date.String(),
		transaction.UserID,
		transaction.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	r.log.DebugContext(ctx, "transaction saved",
		"id", transaction.ID,
		"amount", transaction.Amount.String(),
		"date", transaction.Date.String())
	return nil
}

// GetTransactions возвращает все транзакции, сначала новые.
// Некорректная дата или сумма в любой строке - ошибка всего запроса.
func (r *SQLiteRepository) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, amount, date, user_id, created_at
		 FROM transactions ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		var (
			t         model.Transaction
			amount    string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.CategoryID, &amount, &t.Date, &t.UserID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s: invalid amount %q: %w", t.ID, amount, err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("transaction %s: invalid created_at %q: %w", t.ID, createdAt, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

func (r *SQLiteRepository) AllowUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO allowed_users (user_id) VALUES (?)`, userID)
	if err != nil {
		return fmt.Errorf("allow user %d: %w", userID, err)
	}
	return nil
}

func (r *SQLiteRepository) IsUserAllowed(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM allowed_users WHERE user_id = ?)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", userID, err)
	}
	return exists, nil
}
