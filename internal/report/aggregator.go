package report

import (
	"context"
	"fmt"
	"time"

	"github.com/ivanoskov/mani_bot/internal/log"
	"github.com/ivanoskov/mani_bot/internal/model"
)

// Source - хранилище, из которого строится отчет
type Source interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type Aggregator struct {
	source     Source
	windowDays int
	now        func() time.Time
	log        *log.Logger
}

func NewAggregator(source Source, windowDays int, logger *log.Logger) *Aggregator {
	if windowDays < 1 {
		windowDays = DefaultWindowDays
	}
	return &Aggregator{
		source:     source,
		windowDays: windowDays,
		now:        time.Now,
		log:        logger.WithComponent("report"),
	}
}

// Build загружает транзакции и категории и считает отчет за окно
func (a *Aggregator) Build(ctx context.Context) (*Report, error) {
	transactions, err := a.source.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	categories, err := a.source.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	filtered := FilterToWindow(transactions, a.windowDays, a.now())
	grouped, missing := GroupByDateAndCategory(filtered, model.NameIndex(categories))
	for _, id := range missing {
		a.log.WarnContext(ctx, "category not found, transaction excluded from chart", "category_id", id)
	}

	a.log.DebugContext(ctx, "report built",
		"transactions", len(transactions),
		"in_window", len(filtered),
		"days", len(grouped))

	return &Report{
		WindowDays: a.windowDays,
		Summary:    Summarize(filtered),
		Series:     BuildSeries(grouped),
		Skipped:    len(missing),
	}, nil
}
