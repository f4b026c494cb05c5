package model

// CategoryType тип категории: доход или расход
type CategoryType string

const (
	Income  CategoryType = "Income"
	Expense CategoryType = "Expense"
)

// Valid сообщает, является ли тип одним из известных
func (t CategoryType) Valid() bool {
	return t == Income || t == Expense
}

type Category struct {
	ID   string       `json:"id,omitempty" yaml:"id"`
	Type CategoryType `json:"type" yaml:"type"`
	Name string       `json:"name" yaml:"name"`
}

// FilterByType возвращает категории заданного типа, сохраняя порядок
func FilterByType(categories []Category, t CategoryType) []Category {
	filtered := make([]Category, 0, len(categories))
	for _, cat := range categories {
		if cat.Type == t {
			filtered = append(filtered, cat)
		}
	}
	return filtered
}

// NameIndex строит мапу ID -> Name
func NameIndex(categories []Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return names
}
