package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
)

var errPortfolioRole = apperror.New(apperror.KindAuthorizationDenied, "WrongRole", "Only job seekers have a portfolio.")

type PortfolioController struct {
	users      repository.UserRepository
	portfolios repository.PortfolioRepository
}

func NewPortfolioController(users repository.UserRepository, portfolios repository.PortfolioRepository) *PortfolioController {
	return &PortfolioController{users: users, portfolios: portfolios}
}

// HandleGetOwn returns the caller's portfolio, creating an empty one on first access.
func (pc *PortfolioController) HandleGetOwn(c *fiber.Ctx) error {
	portfolio, err := pc.own(c)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(portfolioResponse(portfolio))
}

// HandleUpdateOwn applies the set fields to the caller's portfolio.
func (pc *PortfolioController) HandleUpdateOwn(c *fiber.Ctx) error {
	portfolio, err := pc.own(c)
	if err != nil {
		return renderError(c, err)
	}
	var in models.PortfolioInput
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	skillsSet := in.Skills != nil
	if fields := in.Validate(); fields != nil {
		return renderError(c, apperror.Validation(fields))
	}

	in.Apply(portfolio)
	var skills []string
	if skillsSet {
		skills = in.Skills
	}
	if err := pc.portfolios.Save(portfolio, skills); err != nil {
		return renderError(c, err)
	}
	reloaded, err := pc.portfolios.GetByID(portfolio.ID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(portfolioResponse(reloaded))
}

// HandleGet returns a portfolio by id.
func (pc *PortfolioController) HandleGet(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return renderError(c, apperror.New(apperror.KindNotFound, "PortfolioNotFound", "Portfolio not found."))
	}
	portfolio, err := pc.portfolios.GetByID(id)
	if err != nil {
		return renderError(c, notFound(err, "PortfolioNotFound", "Portfolio not found."))
	}
	return c.JSON(portfolioResponse(portfolio))
}

// HandleCreateProject adds a project to the caller's portfolio.
func (pc *PortfolioController) HandleCreateProject(c *fiber.Ctx) error {
	portfolio, err := pc.own(c)
	if err != nil {
		return renderError(c, err)
	}
	var in models.ProjectInput
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	if fields := in.Validate(); fields != nil {
		return renderError(c, apperror.Validation(fields))
	}

	project := &models.Project{PortfolioID: portfolio.ID}
	in.Apply(project)
	if err := pc.portfolios.SaveProject(project, in.TechStack); err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(projectResponse(project))
}

// HandleUpdateProject replaces (PUT) or merges (PATCH) a project.
func (pc *PortfolioController) HandleUpdateProject(c *fiber.Ctx) error {
	project, err := pc.ownProject(c)
	if err != nil {
		return renderError(c, err)
	}
	in := models.ProjectInput{}
	if c.Method() == fiber.MethodPatch {
		in = project.ToInput()
	}
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	if fields := in.Validate(); fields != nil {
		return renderError(c, apperror.Validation(fields))
	}

	in.Apply(project)
	if err := pc.portfolios.SaveProject(project, in.TechStack); err != nil {
		return renderError(c, err)
	}
	return c.JSON(projectResponse(project))
}

// HandleDeleteProject removes a project from the caller's portfolio.
func (pc *PortfolioController) HandleDeleteProject(c *fiber.Ctx) error {
	project, err := pc.ownProject(c)
	if err != nil {
		return renderError(c, err)
	}
	if err := pc.portfolios.DeleteProject(project); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (pc *PortfolioController) own(c *fiber.Ctx) (*models.Portfolio, error) {
	account, err := requireUser(c, pc.users)
	if err != nil {
		return nil, err
	}
	if !account.IsJobSeeker() {
		return nil, errPortfolioRole
	}
	portfolio, err := pc.portfolios.GetByUserID(account.ID)
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	portfolio = models.NewPortfolio(account.ID)
	if err := pc.portfolios.Save(portfolio, nil); err != nil {
		return nil, err
	}
	portfolio.User = account
	return portfolio, nil
}

func (pc *PortfolioController) ownProject(c *fiber.Ctx) (*models.Project, error) {
	portfolio, err := pc.own(c)
	if err != nil {
		return nil, err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, "ProjectNotFound", "Project not found.")
	}
	project, err := pc.portfolios.GetProject(portfolio.ID, id)
	if err != nil {
		return nil, notFound(err, "ProjectNotFound", "Project not found.")
	}
	return project, nil
}

func portfolioResponse(p *models.Portfolio) fiber.Map {
	projects := make([]fiber.Map, 0, len(p.Projects))
	for i := range p.Projects {
		projects = append(projects, projectResponse(&p.Projects[i]))
	}
	out := fiber.Map{
		"id":                     p.ID,
		"user_id":                p.UserID,
		"bio":                    p.Bio,
		"years_experience":       p.YearsExperience,
		"skills":                 models.TagNames(p.Skills),
		"featured_projects":      p.FeaturedProjects,
		"github_repos_count":     p.GithubReposCount,
		"github_stars_count":     p.GithubStarsCount,
		"github_followers_count": p.GithubFollowersCount,
		"open_to_remote":         p.OpenToRemote,
		"open_to_contract":       p.OpenToContract,
		"available_for_hire":     p.AvailableForHire,
		"projects":               projects,
		"updated_at":             formatTimePtr(&p.UpdatedAt),
	}
	if p.User != nil {
		out["username"] = p.User.Username
		out["github_username"] = p.User.GithubUsername
		out["portfolio_website"] = p.User.PortfolioWebsite
		out["linkedin_profile"] = p.User.LinkedinProfile
		out["preferred_work_mode"] = p.User.PreferredWorkMode
	}
	return out
}

func projectResponse(p *models.Project) fiber.Map {
	in := p.ToInput()
	return fiber.Map{
		"id":           p.ID,
		"portfolio_id": p.PortfolioID,
		"title":        p.Title,
		"description":  p.Description,
		"github_url":   p.GithubURL,
		"live_url":     p.LiveURL,
		"tech_stack":   in.TechStack,
		"start_date":   in.StartDate,
		"end_date":     in.EndDate,
		"is_featured":  p.IsFeatured,
		"is_active":    p.IsActive,
	}
}
