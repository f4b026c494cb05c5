package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction хранит сумму со знаком: неотрицательная сумма - доход,
// отрицательная - расход.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     int64           `json:"user_id"`
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       Date            `json:"date"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
}

// GenerateID генерирует новый UUID для транзакции, если он еще не установлен
func (t *Transaction) GenerateID() {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
}

// IsIncome сообщает, относится ли транзакция к доходам
func (t Transaction) IsIncome() bool {
	return !t.Amount.IsNegative()
}

// SignedAmount приводит положительную сумму к знаку, принятому для типа категории
func SignedAmount(t CategoryType, amount decimal.Decimal) decimal.Decimal {
	amount = amount.Abs()
	if t == Expense {
		return amount.Neg()
	}
	return amount
}
