package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/your-org/fieldsight/internal/config"
)

// Category of catalog classes.
type Category string

const (
	CategoryAnimals Category = "animals"
	CategoryPlants  Category = "plants"
)

// Catalog holds the classifier's class-name lists, one per category. The
// lists mirror the label files the classification model was trained on and
// drive the discovery screens (undiscovered entries are rendered greyed out).
type Catalog struct {
	classes map[Category][]string
}

// Load reads the class-name JSON files (plain string arrays).
func Load(cfg config.CatalogConfig) (*Catalog, error) {
	c := &Catalog{classes: make(map[Category][]string)}

	files := map[Category]string{
		CategoryAnimals: cfg.AnimalsFile,
		CategoryPlants:  cfg.PlantsFile,
	}
	for category, path := range files {
		names, err := loadClassFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s classes: %w", category, err)
		}
		c.classes[category] = names
	}
	return c, nil
}

func loadClassFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse class file %s: %w", path, err)
	}
	sort.Strings(names)
	return names, nil
}

// ParseCategory validates a category query parameter.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(s)) {
	case CategoryAnimals:
		return CategoryAnimals, nil
	case CategoryPlants:
		return CategoryPlants, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Classes returns the sorted class names of one category.
func (c *Catalog) Classes(category Category) []string {
	return c.classes[category]
}

// Categories returns every known category.
func (c *Catalog) Categories() []Category {
	return []Category{CategoryAnimals, CategoryPlants}
}

// CategoryOf reports which category a class name belongs to.
func (c *Catalog) CategoryOf(className string) (Category, bool) {
	for _, category := range c.Categories() {
		for _, name := range c.classes[category] {
			if strings.EqualFold(name, className) {
				return category, true
			}
		}
	}
	return "", false
}
