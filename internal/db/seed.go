package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/Spok95/classroom-league/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed_default.yaml
var defaultSeed []byte

type SeedCatalog struct {
	Classes []string `yaml:"classes"`
	Rules   []struct {
		Content  string `yaml:"content"`
		Points   int    `yaml:"points"`
		Type     string `yaml:"type"`
		Disabled bool   `yaml:"disabled"`
	} `yaml:"rules"`
	Rewards []struct {
		Name     string `yaml:"name"`
		Cost     int    `yaml:"cost"`
		Stock    int    `yaml:"stock"`
		Rarity   string `yaml:"rarity"`
		Category string `yaml:"category"`
		ImageURL string `yaml:"image_url"`
	} `yaml:"rewards"`
}

// LoadSeed читает каталог из файла; пустой путь — встроенный каталог.
func LoadSeed(path string) (*SeedCatalog, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("seed file: %w", err)
		}
		data = b
	}
	var c SeedCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("seed yaml: %w", err)
	}
	return &c, nil
}

// Seed наполняет справочники. Повторный запуск ничего не дублирует.
func Seed(ctx context.Context, database *sql.DB, c *SeedCatalog, log *zap.Logger) error {
	for _, name := range c.Classes {
		name = strings.ToUpper(strings.TrimSpace(name))
		existing, err := GetClassByName(ctx, database, name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := CreateClass(ctx, database, name); err != nil {
			return fmt.Errorf("insert class %s: %w", name, err)
		}
	}

	for _, r := range c.Rules {
		rt := models.RuleType(strings.ToUpper(r.Type))
		if rt != models.RuleReward && rt != models.RulePenalty {
			return fmt.Errorf("rule %q: неизвестный тип %q", r.Content, r.Type)
		}
		if _, err := UpsertRule(ctx, database, models.Rule{
			Content: r.Content, Points: r.Points, Type: rt, IsActive: !r.Disabled,
		}); err != nil {
			return fmt.Errorf("insert rule %q: %w", r.Content, err)
		}
	}

	for _, r := range c.Rewards {
		img := r.ImageURL
		if img == "" {
			img = models.DefaultRewardImage
		}
		item := models.RewardItem{
			Name:     r.Name,
			Cost:     r.Cost,
			Stock:    r.Stock,
			Rarity:   models.Rarity(strings.ToUpper(r.Rarity)),
			Category: models.Category(strings.ToUpper(r.Category)),
			ImageURL: img,
		}
		if item.Rarity == "" {
			item.Rarity = models.Common
		}
		if item.Category == "" {
			item.Category = models.CategoryItem
		}
		if _, err := CreateReward(ctx, database, item); err != nil {
			return fmt.Errorf("insert reward %q: %w", r.Name, err)
		}
	}

	log.Info("seed applied",
		zap.Int("classes", len(c.Classes)),
		zap.Int("rules", len(c.Rules)),
		zap.Int("rewards", len(c.Rewards)),
	)
	return nil
}
