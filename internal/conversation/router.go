package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivanoskov/mani_bot/internal/log"
	"github.com/ivanoskov/mani_bot/internal/model"
	"github.com/ivanoskov/mani_bot/internal/report"
	"github.com/shopspring/decimal"
)

// ChartFileName - имя файла, под которым отправляется график
const ChartFileName = "income_expense_last_30_days.png"

// Store - хранилище пользователей, категорий и транзакций
type Store interface {
	IsUserAllowed(ctx context.Context, userID int64) (bool, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	AddTransaction(ctx context.Context, userID int64, categoryID string, amount decimal.Decimal) error
}

type Reporter interface {
	Build(ctx context.Context) (*report.Report, error)
}

// ChartRenderer рисует PNG по рядам отчета. Пустой результат без ошибки
// означает, что рисовать нечего.
type ChartRenderer interface {
	Render(series report.Series) ([]byte, error)
}

// Router принимает события от транспорта, двигает состояние диалога
// и возвращает ответ для пользователя.
type Router struct {
	store    Store
	reports  Reporter
	charts   ChartRenderer
	sessions *Sessions
	log      *log.Logger
}

func NewRouter(store Store, reports Reporter, charts ChartRenderer, sessions *Sessions, logger *log.Logger) *Router {
	return &Router{
		store:    store,
		reports:  reports,
		charts:   charts,
		sessions: sessions,
		log:      logger.WithComponent("router"),
	}
}

// authorize проверяется до любого обращения к состоянию
func (r *Router) authorize(ctx context.Context, userID int64, event string) bool {
	allowed, err := r.store.IsUserAllowed(ctx, userID)
	if err != nil {
		r.log.ErrorContext(ctx, "authorization check failed", "user_id", userID, "event", event, "error", err)
		return false
	}
	if !allowed {
		r.log.WarnContext(ctx, "unauthorized user", "user_id", userID, "event", event)
	}
	return allowed
}

func denied() Prompt {
	return Prompt{Text: "Вы не авторизованы для использования этого бота.", Err: ErrUnauthorized}
}

func (r *Router) transition(ctx context.Context, userID int64, from, to State) {
	r.sessions.Set(userID, to)
	r.log.DebugContext(ctx, "state transition",
		"user_id", userID,
		"from", from.Phase.String(),
		"to", to.Phase.String(),
		"category_id", to.PendingCategoryID)
}

// OnStartCommand сбрасывает диалог и показывает выбор типа
func (r *Router) OnStartCommand(ctx context.Context, userID int64) Prompt {
	if !r.authorize(ctx, userID, "start") {
		return denied()
	}
	st, _ := r.sessions.Lookup(userID)
	r.transition(ctx, userID, st, Idle())
	return menuPrompt("Пожалуйста, выберите тип:")
}

// OnStatRequest не читает и не меняет состояние диалога
func (r *Router) OnStatRequest(ctx context.Context, userID int64) Prompt {
	if !r.authorize(ctx, userID, "stat") {
		return denied()
	}
	return r.stat(ctx, userID)
}

// OnBack возвращает пользователя к выбору типа из любой фазы
func (r *Router) OnBack(ctx context.Context, userID int64) Prompt {
	if !r.authorize(ctx, userID, "back") {
		return denied()
	}
	return r.back(ctx, userID, r.sessions.Get(userID))
}

// OnCategoryTypeChosen показывает категории выбранного типа
func (r *Router) OnCategoryTypeChosen(ctx context.Context, userID int64, typeLabel string) Prompt {
	if !r.authorize(ctx, userID, "type") {
		return denied()
	}
	return r.chooseType(ctx, userID, r.sessions.Get(userID), typeLabel)
}

// OnCategorySelected принимает ID категории или "back"
func (r *Router) OnCategorySelected(ctx context.Context, userID int64, categoryID string) Prompt {
	if !r.authorize(ctx, userID, "category") {
		return denied()
	}
	st := r.sessions.Get(userID)
	if categoryID == CallbackBack {
		return r.back(ctx, userID, st)
	}
	return r.selectCategory(ctx, userID, st, categoryID, false)
}

// OnCallback обрабатывает нажатие кнопки под сообщением
func (r *Router) OnCallback(ctx context.Context, userID int64, data string) Prompt {
	return r.OnCategorySelected(ctx, userID, data)
}

// OnAmountText сохраняет транзакцию, если пользователь ждет ввода суммы
func (r *Router) OnAmountText(ctx context.Context, userID int64, rawText string) Prompt {
	if !r.authorize(ctx, userID, "amount") {
		return denied()
	}
	return r.enterAmount(ctx, userID, r.sessions.Get(userID), rawText)
}

// OnText маршрутизирует обычное сообщение. Надписи "Expense", "Income" и
// "Статистика" считаются командами только в фазе Idle; в остальных фазах
// текст - это выбор категории или сумма.
func (r *Router) OnText(ctx context.Context, userID int64, text string) Prompt {
	if !r.authorize(ctx, userID, "text") {
		return denied()
	}
	st := r.sessions.Get(userID)
	text = strings.TrimSpace(text)

	if text == LabelBack {
		return r.back(ctx, userID, st)
	}

	switch st.Phase {
	case PhaseIdle:
		switch text {
		case LabelExpense, LabelIncome:
			return r.chooseType(ctx, userID, st, text)
		case LabelStat:
			return r.stat(ctx, userID)
		}
		return menuPrompt("Выберите действие:")
	case PhaseAwaitingCategory:
		return r.selectCategory(ctx, userID, st, text, true)
	case PhaseAwaitingAmount:
		return r.enterAmount(ctx, userID, st, text)
	}

	r.log.ErrorContext(ctx, "unexpected phase, resetting", "user_id", userID, "phase", st.Phase.String())
	return r.back(ctx, userID, st)
}

func (r *Router) back(ctx context.Context, userID int64, st State) Prompt {
	r.transition(ctx, userID, st, st.Back())
	return menuPrompt("Выберите тип:")
}

func (r *Router) chooseType(ctx context.Context, userID int64, st State, typeLabel string) Prompt {
	categoryType := model.CategoryType(typeLabel)
	if !categoryType.Valid() {
		return menuPrompt("Пожалуйста, выберите тип:")
	}

	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to list categories", "user_id", userID, "error", err)
		return errorPrompt(ErrPersistence, "Ошибка при получении категорий. Пожалуйста, попробуйте еще раз.")
	}

	selected := model.FilterByType(categories, categoryType)
	if len(selected) == 0 {
		return errorPrompt(ErrNoCategories, "Нет категорий этого типа.")
	}

	r.transition(ctx, userID, st, st.TypeChosen())
	return Prompt{
		Text:    "Выберите категорию:",
		Options: categoryOptions(selected),
	}
}

func categoryOptions(categories []model.Category) []Option {
	options := make([]Option, 0, len(categories)+1)
	for _, cat := range categories {
		options = append(options, Option{Label: cat.Name, Data: cat.ID})
	}
	return append(options, Option{Label: LabelBack, Data: CallbackBack})
}

// selectCategory ищет категорию по ID; byName разрешает поиск по названию
// для текстового ввода.
func (r *Router) selectCategory(ctx context.Context, userID int64, st State, input string, byName bool) Prompt {
	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to list categories", "user_id", userID, "error", err)
		return Prompt{Text: "Ошибка при получении категорий. Пожалуйста, попробуйте еще раз.", Err: ErrPersistence}
	}

	var selected *model.Category
	for i, cat := range categories {
		if cat.ID == input || (byName && strings.EqualFold(cat.Name, input)) {
			selected = &categories[i]
			break
		}
	}
	if selected == nil || selected.ID == "" {
		r.log.WarnContext(ctx, "unknown category selected", "user_id", userID, "input", input)
		return Prompt{Text: "Такой категории нет. Выберите категорию из списка.", Err: ErrUnknownCategory}
	}

	r.transition(ctx, userID, st, st.CategorySelected(selected.ID))
	return Prompt{Text: fmt.Sprintf("Вы выбрали категорию «%s». Пожалуйста, введите сумму:", selected.Name)}
}

func (r *Router) enterAmount(ctx context.Context, userID int64, st State, rawText string) Prompt {
	if st.Phase != PhaseAwaitingAmount {
		return errorPrompt(ErrNoCategorySelected, "Сначала выберите категорию.")
	}

	amount, err := ParseAmount(rawText)
	if err != nil {
		r.log.DebugContext(ctx, "invalid amount entered", "user_id", userID, "input", rawText)
		return Prompt{
			Text: "Введена некорректная сумма. Пожалуйста, введите числовое значение.",
			Err:  ErrInvalidAmount,
		}
	}

	if err := r.store.AddTransaction(ctx, userID, st.PendingCategoryID, amount); err != nil {
		r.log.ErrorContext(ctx, "failed to add payment",
			"user_id", userID,
			"category_id", st.PendingCategoryID,
			"amount", amount.String(),
			"error", err)
		r.transition(ctx, userID, st, st.Back())
		return errorPrompt(ErrPersistence, "Не удалось добавить платеж. Пожалуйста, попробуйте еще раз.")
	}

	r.log.InfoContext(ctx, "payment added",
		"user_id", userID,
		"category_id", st.PendingCategoryID,
		"amount", amount.String())
	r.transition(ctx, userID, st, st.Completed())
	return menuPrompt("Платеж успешно добавлен.\nВыберите следующее действие:")
}

func (r *Router) stat(ctx context.Context, userID int64) Prompt {
	rep, err := r.reports.Build(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to build report", "user_id", userID, "error", err)
		return errorPrompt(ErrReport, "Ошибка при формировании статистики.")
	}

	prompt := menuPrompt(rep.Text())
	png, err := r.charts.Render(rep.Series)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to render chart", "user_id", userID, "error", err)
		return prompt
	}
	if len(png) > 0 {
		prompt.Attachment = &Attachment{Name: ChartFileName, Data: png}
	}
	return prompt
}
