// Package conversation ведет пользователя по шагам добавления платежа:
// выбор типа, выбор категории, ввод суммы.
package conversation

import "fmt"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingCategory
	PhaseAwaitingAmount
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingCategory:
		return "awaiting_category"
	case PhaseAwaitingAmount:
		return "awaiting_amount"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State - состояние диалога одного пользователя.
// PendingCategoryID заполнен тогда и только тогда, когда Phase == PhaseAwaitingAmount.
// Переходы возвращают новое значение и не меняют исходное.
type State struct {
	Phase             Phase
	PendingCategoryID string
}

// Idle - начальное состояние
func Idle() State {
	return State{Phase: PhaseIdle}
}

// TypeChosen: пользователь выбрал доход или расход
func (s State) TypeChosen() State {
	return State{Phase: PhaseAwaitingCategory}
}

// CategorySelected: пользователь выбрал категорию, ждем сумму
func (s State) CategorySelected(categoryID string) State {
	return State{Phase: PhaseAwaitingAmount, PendingCategoryID: categoryID}
}

// Back сбрасывает диалог из любой фазы
func (s State) Back() State {
	return Idle()
}

// Completed: транзакция сохранена
func (s State) Completed() State {
	return Idle()
}

// Valid проверяет инвариант между фазой и выбранной категорией
func (s State) Valid() bool {
	switch s.Phase {
	case PhaseIdle, PhaseAwaitingCategory:
		return s.PendingCategoryID == ""
	case PhaseAwaitingAmount:
		return s.PendingCategoryID != ""
	default:
		return false
	}
}
