package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// MaxFeaturedProjects is the number of featured project slots on a portfolio.
const MaxFeaturedProjects = 3

// Portfolio is the showcase of a JOB_SEEKER account. One per user.
type Portfolio struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UserID               uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	User                 *User          `json:"-"`
	Bio                  string         `gorm:"type:text" json:"bio"`
	YearsExperience      uint           `gorm:"not null;default:0" json:"years_experience"`
	Skills               []Tag          `gorm:"many2many:portfolio_skills;" json:"-"`
	FeaturedProjects     datatypes.JSON `json:"featured_projects"`
	GithubReposCount     uint           `gorm:"not null;default:0" json:"github_repos_count"`
	GithubStarsCount     uint           `gorm:"not null;default:0" json:"github_stars_count"`
	GithubFollowersCount uint           `gorm:"not null;default:0" json:"github_followers_count"`
	OpenToRemote         bool           `gorm:"not null" json:"open_to_remote"`
	OpenToContract       bool           `gorm:"not null" json:"open_to_contract"`
	AvailableForHire     bool           `gorm:"not null" json:"available_for_hire"`
	Projects             []Project      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewPortfolio returns an unsaved portfolio with the product defaults.
func NewPortfolio(userID uint) *Portfolio {
	return &Portfolio{
		UserID:           userID,
		OpenToRemote:     true,
		AvailableForHire: true,
		FeaturedProjects: datatypes.JSON("[]"),
	}
}

// PortfolioInput is the writable part of a portfolio. Nil fields are left unchanged.
type PortfolioInput struct {
	Bio              *string         `json:"bio"`
	YearsExperience  *uint           `json:"years_experience" validate:"omitempty,lte=80"`
	Skills           []string        `json:"skills" validate:"max=50"`
	FeaturedProjects json.RawMessage `json:"featured_projects"`
	OpenToRemote     *bool           `json:"open_to_remote"`
	OpenToContract   *bool           `json:"open_to_contract"`
	AvailableForHire *bool           `json:"available_for_hire"`
}

// Validate returns field errors or nil.
func (in *PortfolioInput) Validate() map[string]string {
	in.Skills = NormalizeTags(in.Skills)
	fields := FieldErrors(in)
	if len(in.FeaturedProjects) > 0 && string(in.FeaturedProjects) != "null" {
		var items []map[string]interface{}
		if err := json.Unmarshal(in.FeaturedProjects, &items); err != nil {
			if fields == nil {
				fields = map[string]string{}
			}
			fields["featured_projects"] = "Must be a list of project objects."
		} else if len(items) > MaxFeaturedProjects {
			if fields == nil {
				fields = map[string]string{}
			}
			fields["featured_projects"] = "At most 3 featured projects are allowed."
		}
	}
	return fields
}

// Apply copies the set fields onto p. Skills are resolved by the caller.
func (in PortfolioInput) Apply(p *Portfolio) {
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.YearsExperience != nil {
		p.YearsExperience = *in.YearsExperience
	}
	if len(in.FeaturedProjects) > 0 {
		if string(in.FeaturedProjects) == "null" {
			p.FeaturedProjects = datatypes.JSON("[]")
		} else {
			p.FeaturedProjects = datatypes.JSON(in.FeaturedProjects)
		}
	}
	if in.OpenToRemote != nil {
		p.OpenToRemote = *in.OpenToRemote
	}
	if in.OpenToContract != nil {
		p.OpenToContract = *in.OpenToContract
	}
	if in.AvailableForHire != nil {
		p.AvailableForHire = *in.AvailableForHire
	}
}

// Project is an entry of a portfolio.
type Project struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PortfolioID uint            `gorm:"not null;index" json:"portfolio_id"`
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	GithubURL   string          `gorm:"type:varchar(255);default:''" json:"github_url"`
	LiveURL     string          `gorm:"type:varchar(255);default:''" json:"live_url"`
	TechStack   []Tag           `gorm:"many2many:project_tech_stack;" json:"-"`
	StartDate   *datatypes.Date `json:"start_date"`
	EndDate     *datatypes.Date `json:"end_date"`
	IsFeatured  bool            `gorm:"not null" json:"is_featured"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProjectInput is the writable part of a project. Dates use YYYY-MM-DD.
type ProjectInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	GithubURL   string   `json:"github_url" validate:"omitempty,http_url,max=255"`
	LiveURL     string   `json:"live_url" validate:"omitempty,http_url,max=255"`
	TechStack   []string `json:"tech_stack" validate:"max=20"`
	StartDate   string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	IsFeatured  bool     `json:"is_featured"`
	IsActive    *bool    `json:"is_active"`
}

// Validate returns field errors or nil.
func (in *ProjectInput) Validate() map[string]string {
	in.Title = strings.TrimSpace(in.Title)
	in.TechStack = NormalizeTags(in.TechStack)
	fields := FieldErrors(in)
	if fields == nil && in.StartDate != "" && in.EndDate != "" && in.EndDate < in.StartDate {
		fields = map[string]string{"end_date": "End date cannot be before start date."}
	}
	return fields
}

// Apply copies the input onto p. Validate must have succeeded.
func (in ProjectInput) Apply(p *Project) {
	p.Title = in.Title
	p.Description = in.Description
	p.GithubURL = in.GithubURL
	p.LiveURL = in.LiveURL
	p.StartDate = parseDate(in.StartDate)
	p.EndDate = parseDate(in.EndDate)
	p.IsFeatured = in.IsFeatured
	p.IsActive = in.IsActive == nil || *in.IsActive
}

// ToInput returns the current state as input, used as the base for partial updates.
func (p *Project) ToInput() ProjectInput {
	active := p.IsActive
	return ProjectInput{
		Title:       p.Title,
		Description: p.Description,
		GithubURL:   p.GithubURL,
		LiveURL:     p.LiveURL,
		TechStack:   TagNames(p.TechStack),
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
		IsFeatured:  p.IsFeatured,
		IsActive:    &active,
	}
}

func parseDate(s string) *datatypes.Date {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	d := datatypes.Date(t)
	return &d
}

func formatDate(d *datatypes.Date) string {
	if d == nil {
		return ""
	}
	return time.Time(*d).Format("2006-01-02")
}
