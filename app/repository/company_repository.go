package repository

import (
	"strings"

	"github.com/ManuelReschke/JobFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var companyOrderings = map[string]string{
	"name":        "companies.name ASC, companies.id ASC",
	"-name":       "companies.name DESC, companies.id DESC",
	"created_at":  "companies.created_at ASC, companies.id ASC",
	"-created_at": "companies.created_at DESC, companies.id DESC",
}

// companyRepository implements the CompanyRepository interface
type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository instance
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

// Create inserts the company together with its industry tags
func (r *companyRepository) Create(company *models.Company, industry []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		tags, err := models.FindOrCreateTags(tx, industry)
		if err != nil {
			return err
		}
		company.Industry = tags
		return tx.Create(company).Error
	})
}

// GetByID retrieves a company by its ID
func (r *companyRepository) GetByID(id uint) (*models.Company, error) {
	var company models.Company
	err := r.db.Preload("Industry").First(&company, id).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetBySlug retrieves a company by its slug
func (r *companyRepository) GetBySlug(slug string) (*models.Company, error) {
	var company models.Company
	err := r.db.Preload("Industry").Where("slug = ?", slug).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetByOwnerID retrieves the profile of an account
func (r *companyRepository) GetByOwnerID(ownerID uint) (*models.Company, error) {
	var company models.Company
	err := r.db.Preload("Industry").Where("owner_id = ?", ownerID).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// NameExists checks company names case-insensitively, ignoring exceptID.
func (r *companyRepository) NameExists(name string, exceptID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.Company{}).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Update saves the company. A nil industry keeps the current tags.
func (r *companyRepository) Update(company *models.Company, industry []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(company).Error; err != nil {
			return err
		}
		if industry == nil {
			return nil
		}
		tags, err := models.FindOrCreateTags(tx, industry)
		if err != nil {
			return err
		}
		company.Industry = tags
		return tx.Model(company).Association("Industry").Replace(tags)
	})
}

// Delete removes the company with its tag links and jobs
func (r *companyRepository) Delete(company *models.Company) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var jobs []models.Job
		if err := tx.Where("company_id = ?", company.ID).Find(&jobs).Error; err != nil {
			return err
		}
		for i := range jobs {
			if err := tx.Select("TechTags").Delete(&jobs[i]).Error; err != nil {
				return err
			}
		}
		return tx.Select("Industry").Delete(company).Error
	})
}

// List returns a filtered, ordered page of companies
func (r *companyRepository) List(filter CompanyFilter) (*Page[models.Company], error) {
	p := filter.Pagination.Normalize()
	query := r.db.Model(&models.Company{})

	if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
		like := "%" + s + "%"
		query = query.Where("LOWER(companies.name) LIKE ? OR LOWER(companies.description) LIKE ?", like, like)
	}
	if n := strings.ToLower(strings.TrimSpace(filter.Name)); n != "" {
		query = query.Where("LOWER(companies.name) LIKE ?", "%"+n+"%")
	}
	if tags := models.NormalizeTags(filter.Industry); len(tags) > 0 {
		query = query.Where("companies.id IN (?)", r.db.Table("company_industries").
			Select("company_industries.company_id").
			Joins("JOIN tags ON tags.id = company_industries.tag_id").
			Where("tags.name IN ?", tags))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	order, ok := companyOrderings[filter.Ordering]
	if !ok {
		order = companyOrderings["-created_at"]
	}
	var companies []models.Company
	err := query.Preload("Industry").Order(order).Offset(p.offset()).Limit(p.PageSize).Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return &Page[models.Company]{Items: companies, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}
