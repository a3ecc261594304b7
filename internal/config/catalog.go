package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the league -> category -> sub-category endpoint map. Both
// accepted source spellings (subCategories/subcategories and
// subCategoryId/subcategoryId) are rewritten into the canonical form here,
// so the walker never sees spelling variance.
type Catalog map[string]League

// League identifies one sport's event group and its market categories.
type League struct {
	EventGroupID int                 `yaml:"eventGroupId"`
	Categories   map[string]Category `yaml:"categories"`
}

// Category holds one market category and its sub-category ids keyed by
// display name.
type Category struct {
	CategoryID    int            `yaml:"categoryId"`
	SubCategories map[string]int `yaml:"-"`
}

// UnmarshalYAML accepts either sub-category key spelling and either leaf
// shape (bare id or an object carrying the id under one of two spellings).
func (c *Category) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		CategoryID     int                  `yaml:"categoryId"`
		SubCategoriesA map[string]yaml.Node `yaml:"subCategories"`
		SubCategoriesB map[string]yaml.Node `yaml:"subcategories"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	source := raw.SubCategoriesA
	if source == nil {
		source = raw.SubCategoriesB
	}
	if source == nil {
		return fmt.Errorf("category %d has no subCategories map", raw.CategoryID)
	}

	subs := make(map[string]int, len(source))
	for name, leaf := range source {
		id, err := subCategoryID(leaf)
		if err != nil {
			return fmt.Errorf("sub-category %q: %w", name, err)
		}
		subs[name] = id
	}

	c.CategoryID = raw.CategoryID
	c.SubCategories = subs
	return nil
}

func subCategoryID(node yaml.Node) (int, error) {
	var id int
	if err := node.Decode(&id); err == nil {
		return id, nil
	}

	var obj struct {
		A *int `yaml:"subCategoryId"`
		B *int `yaml:"subcategoryId"`
	}
	if err := node.Decode(&obj); err != nil {
		return 0, fmt.Errorf("expected id or id object: %w", err)
	}
	switch {
	case obj.A != nil:
		return *obj.A, nil
	case obj.B != nil:
		return *obj.B, nil
	default:
		return 0, fmt.Errorf("id object carries no subCategoryId")
	}
}

// LoadCatalog reads the endpoint map from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates the endpoint map.
func ParseCatalog(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(cat) == 0 {
		return nil, fmt.Errorf("catalog defines no leagues")
	}
	for name, league := range cat {
		if league.EventGroupID == 0 {
			return nil, fmt.Errorf("league %q is missing eventGroupId", name)
		}
		if len(league.Categories) == 0 {
			return nil, fmt.Errorf("league %q defines no categories", name)
		}
	}
	return cat, nil
}
