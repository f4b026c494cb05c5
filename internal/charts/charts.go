package charts

import (
	"bytes"
	"fmt"

	"github.com/ivanoskov/mani_bot/internal/report"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Renderer рисует столбчатую диаграмму доходов и расходов по дням
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer создает новый генератор графиков
func NewRenderer() *Renderer {
	return &Renderer{
		Width:  1200,
		Height: 600,
	}
}

const (
	barSpacing  = 10
	minBarWidth = 8
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorCyan,
	chart.ColorYellow,
	chart.ColorAlternateBlue,
	chart.ColorAlternateGreen,
	chart.ColorAlternateYellow,
	chart.ColorAlternateGray,
}

// categoryColor закрепляет цвет за категорией по ее позиции в ряду
func categoryColor(index int) drawing.Color {
	return palette[index%len(palette)]
}

// Render возвращает PNG или nil, если данных для графика нет.
// Каждый день - столбик из категорий; высота части - модуль суммы,
// расходы окрашены прозрачнее доходов.
func (g *Renderer) Render(series report.Series) ([]byte, error) {
	bars := make([]chart.StackedBar, 0, len(series.Dates))
	for i, date := range series.Dates {
		values := make([]chart.Value, 0, len(series.Categories))
		for c, name := range series.Categories {
			amount := series.Amounts[name][i]
			if amount.IsZero() {
				continue
			}
			color := categoryColor(c)
			if amount.IsNegative() {
				color = color.WithAlpha(140)
			}
			values = append(values, chart.Value{
				Label: fmt.Sprintf("%s: %s", name, amount.StringFixed(2)),
				Value: amount.Abs().InexactFloat64(),
				Style: chart.Style{
					FillColor:   color,
					StrokeColor: color,
					FontSize:    8,
					FontColor:   chart.ColorBlack,
				},
			})
		}
		if len(values) == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{
			Name:   date.Format("02.01.2006"),
			Values: values,
		})
	}

	// Проверяем наличие данных
	if len(bars) == 0 {
		return nil, nil
	}

	// ширина столбика подстраивается под число дней в окне
	barWidth := (g.Width-100)/len(bars) - barSpacing
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	for i := range bars {
		bars[i].Width = barWidth
	}

	graph := chart.StackedBarChart{
		Title:  "Доходы/расходы по датам и категориям (30 дней)",
		Width:  g.Width,
		Height: g.Height,
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.Style{
			FontSize:  10,
			FontColor: chart.ColorBlack,
		},
		YAxis: chart.Style{
			FontSize:  10,
			FontColor: chart.ColorBlack,
		},
		BarSpacing: barSpacing,
		Bars:       bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render income/expense chart: %w", err)
	}

	return buffer.Bytes(), nil
}
