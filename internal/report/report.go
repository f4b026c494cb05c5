// Package report считает сводку доходов и расходов за последние дни
// и готовит ряды для графика.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/ivanoskov/mani_bot/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultWindowDays - длина окна отчета по умолчанию
const DefaultWindowDays = 30

// Grouped: дата -> название категории -> сумма
type Grouped map[model.Date]map[string]decimal.Decimal

// Series - данные для графика. Amounts[category][i] относится к Dates[i].
type Series struct {
	Dates      []model.Date
	Categories []string
	Amounts    map[string][]decimal.Decimal
}

func (s Series) Empty() bool {
	return len(s.Dates) == 0
}

type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetIncome    decimal.Decimal
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"💰 Доходы: %s\n"+
			"💸 Расходы: %s\n"+
			"💵 Чистый доход: %s",
		s.TotalIncome.StringFixed(2),
		s.TotalExpense.StringFixed(2),
		s.NetIncome.StringFixed(2),
	)
}

type Report struct {
	WindowDays int
	Summary    Summary
	Series     Series
	// Skipped - транзакции с неизвестной категорией, не попавшие в график
	Skipped int
}

// Text возвращает текст сводки для отправки пользователю
func (r *Report) Text() string {
	return fmt.Sprintf("📊 Доходы и расходы за последние %d дней:\n\n%s", r.WindowDays, r.Summary.String())
}

// FilterToWindow оставляет транзакции с датой не раньше, чем за windowDays
// дней до сегодняшнего дня (граница включается).
func FilterToWindow(transactions []model.Transaction, windowDays int, now time.Time) []model.Transaction {
	start := model.DateOf(now).AddDays(-windowDays)
	filtered := make([]model.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.Date.Before(start) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

// GroupByDateAndCategory суммирует транзакции по дням и названиям категорий.
// Транзакции с неизвестной категорией пропускаются, их ID категорий
// возвращаются вторым значением.
func GroupByDateAndCategory(transactions []model.Transaction, categoryNames map[string]string) (Grouped, []string) {
	grouped := make(Grouped)
	var missing []string
	for _, t := range transactions {
		name, ok := categoryNames[t.CategoryID]
		if !ok {
			missing = append(missing, t.CategoryID)
			continue
		}
		byCategory, ok := grouped[t.Date]
		if !ok {
			byCategory = make(map[string]decimal.Decimal)
			grouped[t.Date] = byCategory
		}
		byCategory[name] = byCategory[name].Add(t.Amount)
	}
	return grouped, missing
}

// BuildSeries раскладывает сгруппированные суммы по рядам. Даты идут
// по возрастанию, категории - по алфавиту, отсутствующие значения - ноль.
func BuildSeries(grouped Grouped) Series {
	dates := make([]model.Date, 0, len(grouped))
	categorySet := make(map[string]struct{})
	for date, byCategory := range grouped {
		dates = append(dates, date)
		for name := range byCategory {
			categorySet[name] = struct{}{}
		}
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	categories := make([]string, 0, len(categorySet))
	for name := range categorySet {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	amounts := make(map[string][]decimal.Decimal, len(categories))
	for _, name := range categories {
		values := make([]decimal.Decimal, len(dates))
		for i, date := range dates {
			values[i] = grouped[date][name]
		}
		amounts[name] = values
	}

	return Series{
		Dates:      dates,
		Categories: categories,
		Amounts:    amounts,
	}
}

// Summarize: доходы - сумма неотрицательных сумм, расходы - модуль суммы отрицательных
func Summarize(transactions []model.Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero
	for _, t := range transactions {
		if t.IsIncome() {
			income = income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount.Abs())
		}
	}
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		NetIncome:    income.Sub(expense),
	}
}
