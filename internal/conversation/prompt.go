package conversation

import "errors"

// Надписи кнопок и служебные данные callback
const (
	LabelExpense = "Expense"
	LabelIncome  = "Income"
	LabelStat    = "Статистика"
	LabelBack    = "Назад"

	CallbackBack = "back"
)

var (
	ErrUnauthorized       = errors.New("user is not authorized")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrPersistence        = errors.New("store operation failed")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrNoCategories       = errors.New("no categories of this type")
	ErrNoCategorySelected = errors.New("no category selected")
	ErrReport             = errors.New("report failed")
)

// Prompt - ответ пользователю. Ошибки не выходят за пределы Router:
// они отражаются в тексте и в поле Err.
type Prompt struct {
	Text string
	// Menu - постоянная клавиатура с главными действиями
	Menu []string
	// Options - кнопки под сообщением
	Options    []Option
	Attachment *Attachment
	Err        error
}

type Option struct {
	Label string
	Data  string
}

// Attachment - PNG-картинка с графиком
type Attachment struct {
	Name string
	Data []byte
}

// MainMenu - кнопки выбора типа и статистики
func MainMenu() []string {
	return []string{LabelExpense, LabelIncome, LabelStat}
}

func menuPrompt(text string) Prompt {
	return Prompt{Text: text, Menu: MainMenu()}
}

func errorPrompt(err error, text string) Prompt {
	return Prompt{Text: text, Menu: MainMenu(), Err: err}
}
