package models

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// Company is the profile a COMPANY account posts jobs under. Each owner has at
// most one.
type Company struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"not null;uniqueIndex" json:"owner_id"`
	Name        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Slug        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Website     string    `gorm:"type:varchar(255);default:''" json:"website"`
	Description string    `gorm:"type:text" json:"description"`
	Industry    []Tag     `gorm:"many2many:company_industries;" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CompanyInput is the writable part of a company profile.
type CompanyInput struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Website     string   `json:"website" validate:"omitempty,http_url,max=255"`
	Description string   `json:"description"`
	Industry    []string `json:"industry" validate:"max=10"`
}

// Normalize trims text fields and normalizes industry tags.
func (in *CompanyInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Website = strings.TrimSpace(in.Website)
	in.Industry = NormalizeTags(in.Industry)
}

// Validate returns field errors or nil.
func (in *CompanyInput) Validate() map[string]string {
	in.Normalize()
	return FieldErrors(in)
}

// Apply copies the input onto c. Owner and slug are left untouched except
// that a new company receives a slug derived from its name.
func (in CompanyInput) Apply(c *Company) {
	c.Name = in.Name
	c.Website = in.Website
	c.Description = in.Description
	if c.Slug == "" {
		c.Slug = slug.Make(in.Name)
	}
}

// ToInput returns the current state as input, used as the base for partial updates.
func (c *Company) ToInput() CompanyInput {
	return CompanyInput{
		Name:        c.Name,
		Website:     c.Website,
		Description: c.Description,
		Industry:    TagNames(c.Industry),
	}
}
