package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/jobposting"
)

type JobController struct {
	users   repository.UserRepository
	jobs    repository.JobRepository
	service *jobposting.Service
}

func NewJobController(users repository.UserRepository, jobs repository.JobRepository, service *jobposting.Service) *JobController {
	return &JobController{users: users, jobs: jobs, service: service}
}

// HandleList returns a filtered page of jobs.
func (jc *JobController) HandleList(c *fiber.Ctx) error {
	filter := repository.JobFilter{
		Search:           c.Query("search"),
		WorkMode:         c.Query("work_mode"),
		JobType:          c.Query("job_type"),
		Neighborhood:     c.Query("neighborhood"),
		IsRemoteFriendly: queryBool(c, "is_remote_friendly"),
		Tags:             queryList(c, "tags"),
		Ordering:         c.Query("ordering"),
		Pagination:       paginationFromQuery(c),
	}
	if id := c.QueryInt("company"); id > 0 {
		filter.CompanyID = uint(id)
	}
	page, err := jc.jobs.List(filter)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(listResponse(page, jobResponse))
}

// HandleGet returns a job by its public id.
func (jc *JobController) HandleGet(c *fiber.Ctx) error {
	job, err := jc.jobs.GetByUUID(c.Params("id"))
	if err != nil {
		return renderError(c, notFound(err, "JobNotFound", "Job not found."))
	}
	return c.JSON(jobResponse(job))
}

// HandleCreate posts a job for the caller's company. Company and poster
// come from the account, never from the body.
func (jc *JobController) HandleCreate(c *fiber.Ctx) error {
	account, err := currentUser(c, jc.users)
	if err != nil {
		return renderError(c, err)
	}
	var in models.JobInput
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	job, err := jc.service.Create(c.UserContext(), account, in)
	if err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(jobResponse(job))
}

// HandleUpdate replaces (PUT) or merges (PATCH) the writable fields and
// revalidates the result.
func (jc *JobController) HandleUpdate(c *fiber.Ctx) error {
	account, err := requireUser(c, jc.users)
	if err != nil {
		return renderError(c, err)
	}
	job, err := jc.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return renderError(c, err)
	}
	if err := jc.service.CanManage(account, job); err != nil {
		return renderError(c, err)
	}

	in := models.JobInput{}
	if c.Method() == fiber.MethodPatch {
		in = job.ToInput()
	}
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	updated, err := jc.service.Update(c.UserContext(), account, job, in)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(jobResponse(updated))
}

// HandleDelete removes a job of the caller's company.
func (jc *JobController) HandleDelete(c *fiber.Ctx) error {
	account, err := requireUser(c, jc.users)
	if err != nil {
		return renderError(c, err)
	}
	job, err := jc.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return renderError(c, err)
	}
	if err := jc.service.Delete(c.UserContext(), account, job); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func jobResponse(job *models.Job) fiber.Map {
	out := fiber.Map{
		"id":                 job.UUID,
		"title":              job.Title,
		"company_id":         job.CompanyID,
		"posted_by":          job.PostedByID,
		"apply_url":          job.ApplyURL,
		"neighborhood":       job.Neighborhood,
		"location":           job.Location,
		"job_type":           job.JobType,
		"work_mode":          job.WorkMode,
		"remote_policy":      job.RemotePolicy,
		"async_level":        job.AsyncLevel,
		"description":        job.Description,
		"responsibilities":   job.Responsibilities,
		"requirements":       job.Requirements,
		"min_salary":         job.MinSalary,
		"max_salary":         job.MaxSalary,
		"tech_tags":          models.TagNames(job.TechTags),
		"benefits":           job.Benefits,
		"interview_process":  job.InterviewProcess,
		"is_remote_friendly": job.IsRemoteFriendly,
		"created_at":         formatTimePtr(&job.CreatedAt),
		"updated_at":         formatTimePtr(&job.UpdatedAt),
	}
	if job.Company != nil {
		out["company"] = fiber.Map{
			"id":   job.Company.ID,
			"name": job.Company.Name,
			"slug": job.Company.Slug,
		}
	}
	return out
}
