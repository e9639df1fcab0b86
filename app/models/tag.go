package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Tag is a free-form label shared by companies (industry), jobs (tech tags),
// portfolios (skills) and projects (tech stack).
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex" json:"name" validate:"required,min=1,max=100"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// FindOrCreate loads the tag by name or inserts it.
func (t *Tag) FindOrCreate(db *gorm.DB) error {
	result := db.Where("name = ?", t.Name).First(t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return db.Create(t).Error
		}
		return result.Error
	}
	return nil
}

// NormalizeTags lower-cases, trims and de-duplicates names, keeping order.
func NormalizeTags(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// FindOrCreateTags resolves normalized names to persisted tags.
func FindOrCreateTags(db *gorm.DB, names []string) ([]Tag, error) {
	names = NormalizeTags(names)
	tags := make([]Tag, 0, len(names))
	for _, n := range names {
		t := Tag{Name: n}
		if err := t.FindOrCreate(db); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// TagNames flattens tags for API responses.
func TagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
