package repository

import (
	"strings"

	"github.com/ManuelReschke/JobFox/app/models"
	"gorm.io/gorm"
)

var jobOrderings = map[string]string{
	"created_at":  "jobs.created_at ASC, jobs.id ASC",
	"-created_at": "jobs.created_at DESC, jobs.id DESC",
	"min_salary":  "jobs.min_salary ASC, jobs.id ASC",
	"-min_salary": "jobs.min_salary DESC, jobs.id DESC",
	"max_salary":  "jobs.max_salary ASC, jobs.id ASC",
	"-max_salary": "jobs.max_salary DESC, jobs.id DESC",
}

// jobRepository implements the JobRepository interface
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// GetByUUID retrieves a job by its public id
func (r *jobRepository) GetByUUID(uuid string) (*models.Job, error) {
	var job models.Job
	err := r.db.Preload("Company").Preload("TechTags").Where("uuid = ?", uuid).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns a filtered, ordered page of jobs
func (r *jobRepository) List(filter JobFilter) (*Page[models.Job], error) {
	p := filter.Pagination.Normalize()
	query := r.db.Model(&models.Job{})

	if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
		like := "%" + s + "%"
		query = query.Where(
			"LOWER(jobs.title) LIKE ? OR LOWER(jobs.description) LIKE ? OR LOWER(jobs.requirements) LIKE ? OR LOWER(jobs.responsibilities) LIKE ?",
			like, like, like, like)
	}
	if filter.CompanyID != 0 {
		query = query.Where("jobs.company_id = ?", filter.CompanyID)
	}
	if v := strings.ToUpper(strings.TrimSpace(filter.WorkMode)); v != "" {
		query = query.Where("jobs.work_mode = ?", v)
	}
	if v := strings.ToUpper(strings.TrimSpace(filter.JobType)); v != "" {
		query = query.Where("jobs.job_type = ?", v)
	}
	if v := strings.ToUpper(strings.TrimSpace(filter.Neighborhood)); v != "" {
		query = query.Where("jobs.neighborhood = ?", v)
	}
	if filter.IsRemoteFriendly != nil {
		query = query.Where("jobs.is_remote_friendly = ?", *filter.IsRemoteFriendly)
	}
	if tags := models.NormalizeTags(filter.Tags); len(tags) > 0 {
		query = query.Where("jobs.id IN (?)", r.db.Table("job_tech_tags").
			Select("job_tech_tags.job_id").
			Joins("JOIN tags ON tags.id = job_tech_tags.tag_id").
			Where("tags.name IN ?", tags))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	order, ok := jobOrderings[filter.Ordering]
	if !ok {
		order = jobOrderings["-created_at"]
	}
	var jobs []models.Job
	err := query.Preload("Company").Preload("TechTags").
		Order(order).Offset(p.offset()).Limit(p.PageSize).Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return &Page[models.Job]{Items: jobs, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

// CountByCompanyID counts the jobs of a company
func (r *jobRepository) CountByCompanyID(companyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Job{}).Where("company_id = ?", companyID).Count(&count).Error
	return count, err
}
