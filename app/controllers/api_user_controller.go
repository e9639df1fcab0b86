package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	"github.com/ManuelReschke/JobFox/internal/pkg/jobposting"
)

// ProfileInput is the body of PATCH /auth/me. Nil fields are left unchanged.
type ProfileInput struct {
	GithubUsername    *string `json:"github_username" validate:"omitempty,max=100"`
	PortfolioWebsite  *string `json:"portfolio_website" validate:"omitempty,http_url,max=255"`
	LinkedinProfile   *string `json:"linkedin_profile" validate:"omitempty,http_url,max=255"`
	PreferredWorkMode *string `json:"preferred_work_mode" validate:"omitempty,oneof=REMOTE ONSITE HYBRID"`
}

type UserController struct {
	users repository.UserRepository
	jobs  *jobposting.Service
}

func NewUserController(users repository.UserRepository, jobs *jobposting.Service) *UserController {
	return &UserController{users: users, jobs: jobs}
}

// HandleGetUserAccount returns the caller's account with its posting entitlement.
func (uc *UserController) HandleGetUserAccount(c *fiber.Ctx) error {
	account, err := requireUser(c, uc.users)
	if err != nil {
		return renderError(c, err)
	}
	settings, err := uc.users.GetSettings(account.ID)
	if err != nil {
		return renderError(c, err)
	}
	decision, subscribed, err := uc.jobs.Entitlement(c.UserContext(), account)
	if err != nil {
		return renderError(c, err)
	}

	response := accountResponse(account)
	response["has_active_subscription"] = subscribed
	response["can_post_job"] = decision.Allowed
	if decision.Allowed {
		response["can_post_job_reason"] = nil
		response["posting_source"] = string(decision.Source)
	} else {
		response["can_post_job_reason"] = string(decision.Reason)
		response["can_post_job_message"] = decision.Message()
	}
	response["api_key"] = fiber.Map{
		"active":       settings.HasActiveAPIKey(),
		"prefix":       settings.APIKeyPrefix,
		"created_at":   formatTimePtr(settings.APIKeyCreatedAt),
		"last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
	}
	return c.JSON(response)
}

// HandleUpdateProfile updates the profile links of the caller.
func (uc *UserController) HandleUpdateProfile(c *fiber.Ctx) error {
	account, err := requireUser(c, uc.users)
	if err != nil {
		return renderError(c, err)
	}
	var in ProfileInput
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	if in.PreferredWorkMode != nil {
		v := strings.ToUpper(strings.TrimSpace(*in.PreferredWorkMode))
		in.PreferredWorkMode = &v
	}
	if fields := models.FieldErrors(&in); fields != nil {
		return renderError(c, apperror.Validation(fields))
	}

	updates := map[string]interface{}{}
	if in.GithubUsername != nil {
		updates["github_username"] = strings.TrimSpace(*in.GithubUsername)
	}
	if in.PortfolioWebsite != nil {
		updates["portfolio_website"] = strings.TrimSpace(*in.PortfolioWebsite)
	}
	if in.LinkedinProfile != nil {
		updates["linkedin_profile"] = strings.TrimSpace(*in.LinkedinProfile)
	}
	if in.PreferredWorkMode != nil {
		updates["preferred_work_mode"] = *in.PreferredWorkMode
	}
	if err := uc.users.UpdateProfile(account.ID, updates); err != nil {
		return renderError(c, err)
	}

	updated, err := uc.users.GetByID(account.ID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(accountResponse(updated))
}

// HandleIssueAPIKey rotates the caller's API key. The raw key is only
// returned by this response.
func (uc *UserController) HandleIssueAPIKey(c *fiber.Ctx) error {
	account, err := requireUser(c, uc.users)
	if err != nil {
		return renderError(c, err)
	}
	settings, err := uc.users.GetSettings(account.ID)
	if err != nil {
		return renderError(c, err)
	}
	raw, err := settings.IssueAPIKey()
	if err != nil {
		return renderError(c, err)
	}
	if err := uc.users.SaveSettings(settings); err != nil {
		return renderError(c, err)
	}
	zap.L().Info("api key issued", zap.Uint("user_id", account.ID), zap.String("prefix", settings.APIKeyPrefix))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key":    raw,
		"prefix":     settings.APIKeyPrefix,
		"created_at": formatTimePtr(settings.APIKeyCreatedAt),
	})
}

// HandleRevokeAPIKey disables the caller's API key.
func (uc *UserController) HandleRevokeAPIKey(c *fiber.Ctx) error {
	account, err := requireUser(c, uc.users)
	if err != nil {
		return renderError(c, err)
	}
	settings, err := uc.users.GetSettings(account.ID)
	if err != nil {
		return renderError(c, err)
	}
	settings.RevokeAPIKey()
	if err := uc.users.SaveSettings(settings); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
