package seed

import (
	_ "embed"
	"fmt"

	"yatube/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed groups.yml
var builtInGroupsYAML []byte

// BuiltInGroup is a group every installation starts with.
type BuiltInGroup struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// BuiltInGroups parses the embedded group fixtures.
func BuiltInGroups() ([]BuiltInGroup, error) {
	return parseGroups(builtInGroupsYAML)
}

func parseGroups(raw []byte) ([]BuiltInGroup, error) {
	var groups []BuiltInGroup
	if err := yaml.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("parse group fixtures: %w", err)
	}
	seen := make(map[string]struct{}, len(groups))
	for i, g := range groups {
		if g.Title == "" || g.Slug == "" {
			return nil, fmt.Errorf("group fixture %d: title and slug are required", i)
		}
		if _, dup := seen[g.Slug]; dup {
			return nil, fmt.Errorf("group fixture %d: duplicate slug %q", i, g.Slug)
		}
		seen[g.Slug] = struct{}{}
	}
	return groups, nil
}

// Groups upserts the built-in groups by slug. Running it twice is harmless.
func Groups(db *gorm.DB) ([]models.Group, error) {
	fixtures, err := BuiltInGroups()
	if err != nil {
		return nil, err
	}

	out := make([]models.Group, 0, len(fixtures))
	for _, item := range fixtures {
		group := models.Group{
			Title:       item.Title,
			Slug:        item.Slug,
			Description: item.Description,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "updated_at"}),
		}).Create(&group).Error; err != nil {
			return nil, fmt.Errorf("seed built-in group %s: %w", item.Slug, err)
		}
		// Some drivers leave the ID unset when the upsert took the update path.
		if group.ID == 0 {
			if err := db.Where("slug = ?", item.Slug).First(&group).Error; err != nil {
				return nil, fmt.Errorf("reload group %s: %w", item.Slug, err)
			}
		}
		out = append(out, group)
	}
	return out, nil
}
