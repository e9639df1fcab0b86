package repository

import (
	"testing"
	"time"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedJob(t *testing.T, db *gorm.DB, company *models.Company, in models.JobInput, createdAt time.Time) *models.Job {
	t.Helper()
	require.Nil(t, models.ValidateJob(&in))
	tags, err := models.FindOrCreateTags(db, in.TechTags)
	require.NoError(t, err)
	job := models.NewJob(in, company.ID, &company.OwnerID)
	job.TechTags = tags
	job.CreatedAt = createdAt
	require.NoError(t, db.Create(job).Error)
	return job
}

func salary(v float64) *float64 { return &v }

func seedJobs(t *testing.T) (*gorm.DB, *models.Company, *models.Company) {
	t.Helper()
	db := testutil.NewDB(t)
	acme := testutil.CreateCompany(t, db, testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, false), "Acme")
	globex := testutil.CreateCompany(t, db, testutil.CreateUser(t, db, "globex", models.ROLE_COMPANY, false), "Globex")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedJob(t, db, acme, models.JobInput{
		Title: "Go Engineer", ApplyURL: "https://acme.example/1", Description: "Backend services in Go.",
		WorkMode: "remote", TechTags: []string{"go", "postgres"}, IsRemoteFriendly: true,
		MinSalary: salary(90000), MaxSalary: salary(120000),
	}, base)
	seedJob(t, db, acme, models.JobInput{
		Title: "Frontend Developer", ApplyURL: "https://acme.example/2", Description: "React UI.",
		WorkMode: "HYBRID", JobType: "CT", Neighborhood: "midtown", TechTags: []string{"react"},
		MinSalary: salary(70000),
	}, base.Add(time.Hour))
	seedJob(t, db, globex, models.JobInput{
		Title: "Data Engineer", ApplyURL: "https://globex.example/1", Description: "Pipelines.",
		Requirements: "Strong Go skills", WorkMode: "ONSITE", TechTags: []string{"python"},
		MinSalary: salary(110000),
	}, base.Add(2*time.Hour))
	return db, acme, globex
}

func titles(jobs []models.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Title)
	}
	return out
}

func TestJobListDefaultsToNewestFirst(t *testing.T) {
	db, _, _ := seedJobs(t)
	page, err := NewJobRepository(db).List(JobFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, []string{"Data Engineer", "Frontend Developer", "Go Engineer"}, titles(page.Items))
	require.NotNil(t, page.Items[0].Company)
	assert.Equal(t, "Globex", page.Items[0].Company.Name)
}

func TestJobListFilters(t *testing.T) {
	db, acme, _ := seedJobs(t)
	repo := NewJobRepository(db)
	remote := true

	cases := []struct {
		name   string
		filter JobFilter
		want   []string
	}{
		{"search matches requirements", JobFilter{Search: "go"}, []string{"Data Engineer", "Go Engineer"}},
		{"company", JobFilter{CompanyID: acme.ID}, []string{"Frontend Developer", "Go Engineer"}},
		{"work mode", JobFilter{WorkMode: "hybrid"}, []string{"Frontend Developer"}},
		{"job type", JobFilter{JobType: "CT"}, []string{"Frontend Developer"}},
		{"neighborhood", JobFilter{Neighborhood: "MIDTOWN"}, []string{"Frontend Developer"}},
		{"remote friendly", JobFilter{IsRemoteFriendly: &remote}, []string{"Go Engineer"}},
		{"tags", JobFilter{Tags: []string{"React", "python"}}, []string{"Data Engineer", "Frontend Developer"}},
		{"min salary ascending", JobFilter{Ordering: "min_salary"}, []string{"Frontend Developer", "Go Engineer", "Data Engineer"}},
		{"unknown ordering falls back", JobFilter{Ordering: "title"}, []string{"Data Engineer", "Frontend Developer", "Go Engineer"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := repo.List(tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(page.Items))
			assert.Equal(t, int64(len(tc.want)), page.Total)
		})
	}
}

func TestJobListPagination(t *testing.T) {
	db, _, _ := seedJobs(t)
	repo := NewJobRepository(db)

	page, err := repo.List(JobFilter{Pagination: Pagination{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, []string{"Go Engineer"}, titles(page.Items))

	assert.Equal(t, Pagination{Page: 1, PageSize: MaxPageSize}, Pagination{PageSize: 500}.Normalize())
	assert.Equal(t, Pagination{Page: 1, PageSize: DefaultPageSize}, Pagination{Page: -3}.Normalize())
}

func TestJobGetByUUID(t *testing.T) {
	db, acme, _ := seedJobs(t)
	repo := NewJobRepository(db)

	first, err := repo.List(JobFilter{CompanyID: acme.ID, Ordering: "created_at"})
	require.NoError(t, err)
	job, err := repo.GetByUUID(first.Items[0].UUID)
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", job.Title)
	assert.Equal(t, []string{"go", "postgres"}, models.TagNames(job.TechTags))

	_, err = repo.GetByUUID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	n, err := repo.CountByCompanyID(acme.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
