package repository

import (
	"github.com/ManuelReschke/JobFox/app/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination selects a 1-based page of a list.
type Pagination struct {
	Page     int
	PageSize int
}

// Normalize clamps the page to >= 1 and the size to 1..MaxPageSize.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) offset() int { return (p.Page - 1) * p.PageSize }

// Page is one page of a list together with the total row count.
type Page[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
}

// JobFilter narrows the public job list. Zero values do not filter.
type JobFilter struct {
	Search           string
	CompanyID        uint
	WorkMode         string
	JobType          string
	Neighborhood     string
	IsRemoteFriendly *bool
	Tags             []string
	Ordering         string
	Pagination
}

// CompanyFilter narrows the public company list. Zero values do not filter.
type CompanyFilter struct {
	Search   string
	Name     string
	Industry []string
	Ordering string
	Pagination
}

// UserRepository defines the interface for account operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByLogin(login string) (*models.User, error)
	Exists(username, email string) (bool, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	UpdateProfile(id uint, fields map[string]interface{}) error
	TouchLastLogin(id uint) error
	GetSettings(userID uint) (*models.UserSettings, error)
	SaveSettings(settings *models.UserSettings) error
}

// CompanyRepository defines the interface for company profile operations
type CompanyRepository interface {
	Create(company *models.Company, industry []string) error
	GetByID(id uint) (*models.Company, error)
	GetBySlug(slug string) (*models.Company, error)
	GetByOwnerID(ownerID uint) (*models.Company, error)
	NameExists(name string, exceptID uint) (bool, error)
	Update(company *models.Company, industry []string) error
	Delete(company *models.Company) error
	List(filter CompanyFilter) (*Page[models.Company], error)
}

// JobRepository defines the read side of job postings. Writes go through
// the jobposting service.
type JobRepository interface {
	GetByUUID(uuid string) (*models.Job, error)
	List(filter JobFilter) (*Page[models.Job], error)
	CountByCompanyID(companyID uint) (int64, error)
}

// PortfolioRepository defines the interface for portfolio operations
type PortfolioRepository interface {
	GetByID(id uint) (*models.Portfolio, error)
	GetByUserID(userID uint) (*models.Portfolio, error)
	Save(portfolio *models.Portfolio, skills []string) error
	GetProject(portfolioID, projectID uint) (*models.Project, error)
	SaveProject(project *models.Project, techStack []string) error
	DeleteProject(project *models.Project) error
}
