package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/ivanoskov/mani_bot/internal/model"
	"gopkg.in/yaml.v3"
)

// Seed - начальные данные: кому разрешен доступ и какие есть категории
type Seed struct {
	AllowedUsers []int64          `yaml:"allowed_users"`
	Categories   []model.Category `yaml:"categories"`
}

// LoadSeed читает YAML-файл с начальными данными
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, cat := range seed.Categories {
		if cat.ID == "" || cat.Name == "" {
			return nil, fmt.Errorf("seed category #%d: id and name are required", i+1)
		}
		if !cat.Type.Valid() {
			return nil, fmt.Errorf("seed category %q: type must be %s or %s", cat.ID, model.Income, model.Expense)
		}
	}
	return &seed, nil
}

// ApplySeed записывает пользователей и категории. Повторный запуск
// ничего не дублирует.
func ApplySeed(ctx context.Context, repo Repository, seed *Seed) error {
	for _, userID := range seed.AllowedUsers {
		if err := repo.AllowUser(ctx, userID); err != nil {
			return err
		}
	}
	for i := range seed.Categories {
		if err := repo.CreateCategory(ctx, &seed.Categories[i]); err != nil {
			return fmt.Errorf("error creating category %s: %w", seed.Categories[i].Name, err)
		}
	}
	return nil
}
