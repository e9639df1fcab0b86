package repository

import (
	"github.com/ManuelReschke/JobFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// portfolioRepository implements the PortfolioRepository interface
type portfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new portfolio repository instance
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

func (r *portfolioRepository) preloaded() *gorm.DB {
	return r.db.Preload("User").Preload("Skills").
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("projects.id ASC") }).
		Preload("Projects.TechStack")
}

// GetByID retrieves a portfolio with skills and projects
func (r *portfolioRepository) GetByID(id uint) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := r.preloaded().First(&portfolio, id).Error; err != nil {
		return nil, err
	}
	return &portfolio, nil
}

// GetByUserID retrieves the portfolio of an account
func (r *portfolioRepository) GetByUserID(userID uint) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := r.preloaded().Where("user_id = ?", userID).First(&portfolio).Error; err != nil {
		return nil, err
	}
	return &portfolio, nil
}

// Save inserts or updates the portfolio. A nil skills keeps the current tags.
func (r *portfolioRepository) Save(portfolio *models.Portfolio, skills []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(portfolio).Error; err != nil {
			return err
		}
		if skills == nil {
			return nil
		}
		tags, err := models.FindOrCreateTags(tx, skills)
		if err != nil {
			return err
		}
		portfolio.Skills = tags
		return tx.Model(portfolio).Association("Skills").Replace(tags)
	})
}

// GetProject retrieves a project that belongs to portfolioID
func (r *portfolioRepository) GetProject(portfolioID, projectID uint) (*models.Project, error) {
	var project models.Project
	err := r.db.Preload("TechStack").Where("id = ? AND portfolio_id = ?", projectID, portfolioID).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// SaveProject inserts or updates a project and replaces its tech stack
func (r *portfolioRepository) SaveProject(project *models.Project, techStack []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(project).Error; err != nil {
			return err
		}
		tags, err := models.FindOrCreateTags(tx, techStack)
		if err != nil {
			return err
		}
		project.TechStack = tags
		return tx.Model(project).Association("TechStack").Replace(tags)
	})
}

// DeleteProject removes a project and its tag links
func (r *portfolioRepository) DeleteProject(project *models.Project) error {
	return r.db.Select("TechStack").Delete(project).Error
}
