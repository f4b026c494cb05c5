package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/ivanoskov/mani_bot/internal/model"
	"github.com/ivanoskov/mani_bot/internal/report"
	"github.com/shopspring/decimal"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G'}

func TestRenderProducesPNG(t *testing.T) {
	d1 := model.NewDate(2024, time.May, 10)
	d2 := d1.AddDays(1)
	series := report.Series{
		Dates:      []model.Date{d1, d2},
		Categories: []string{"Зарплата", "Продукты"},
		Amounts: map[string][]decimal.Decimal{
			"Зарплата": {decimal.NewFromInt(1000), decimal.Zero},
			"Продукты": {decimal.RequireFromString("-250.50"), decimal.NewFromInt(-40)},
		},
	}

	png, err := NewRenderer().Render(series)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(png, pngSignature) {
		t.Fatalf("expected PNG output, got %d bytes", len(png))
	}
}

func TestRenderEmptySeries(t *testing.T) {
	png, err := NewRenderer().Render(report.Series{})
	if err != nil || png != nil {
		t.Fatalf("expected nil chart for empty series, got %d bytes, err=%v", len(png), err)
	}

	zeros := report.Series{
		Dates:      []model.Date{model.NewDate(2024, time.May, 10)},
		Categories: []string{"Продукты"},
		Amounts:    map[string][]decimal.Decimal{"Продукты": {decimal.Zero}},
	}
	png, err = NewRenderer().Render(zeros)
	if err != nil || png != nil {
		t.Fatalf("all-zero series must not be drawn, got %d bytes, err=%v", len(png), err)
	}
}

func TestCategoryColorWraps(t *testing.T) {
	if categoryColor(0) != categoryColor(len(palette)) {
		t.Fatal("palette must wrap around")
	}
}
