package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	jfsession "github.com/ManuelReschke/JobFox/internal/pkg/session"
)

var errBadCredentials = apperror.New(apperror.KindAuthenticationRequired, "InvalidCredentials", "Unable to log in with provided credentials.")

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=JOB_SEEKER COMPANY"`
}

// LoginInput is the body of POST /auth/login. Login takes a username or email.
type LoginInput struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthController struct {
	users    repository.UserRepository
	sessions *session.Store
}

func NewAuthController(users repository.UserRepository, sessions *session.Store) *AuthController {
	return &AuthController{users: users, sessions: sessions}
}

// HandleRegister creates a JOB_SEEKER or COMPANY account and logs it in.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var in RegisterInput
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if fields := models.FieldErrors(&in); fields != nil {
		return renderError(c, apperror.Validation(fields))
	}

	exists, err := ac.users.Exists(in.Username, in.Email)
	if err != nil {
		return renderError(c, err)
	}
	if exists {
		return renderError(c, apperror.New(apperror.KindConflict, "AccountExists", "A user with that username or email already exists."))
	}

	user, err := models.CreateUser(in.Username, in.Email, in.Password, in.Role)
	if err != nil {
		return renderError(c, apperror.Validation(models.FieldErrors(&in)))
	}
	if err := ac.users.Create(user); err != nil {
		return renderError(c, err)
	}
	if err := jfsession.Login(ac.sessions, c, user.ID, user.Username); err != nil {
		return renderError(c, err)
	}

	zap.L().Info("account registered", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return c.Status(fiber.StatusCreated).JSON(accountResponse(user))
}

// HandleLogin verifies the credentials and starts a session.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var in LoginInput
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	login := in.Login
	if login == "" {
		login = in.Username
	}
	if login == "" {
		login = in.Email
	}
	if strings.TrimSpace(login) == "" || in.Password == "" {
		return renderError(c, errBadCredentials)
	}

	// notice: the response never tells which part of the credentials was wrong
	user, err := ac.users.GetByLogin(login)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return renderError(c, err)
	}
	if err != nil || !user.CheckPassword(in.Password) {
		return renderError(c, errBadCredentials)
	}
	if !user.IsActive() {
		return renderError(c, apperror.New(apperror.KindAuthorizationDenied, "UserInactive", "User inactive."))
	}

	if err := jfsession.Login(ac.sessions, c, user.ID, user.Username); err != nil {
		return renderError(c, err)
	}
	if err := ac.users.TouchLastLogin(user.ID); err != nil {
		zap.L().Warn("failed to update last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return c.JSON(accountResponse(user))
}

// HandleLogout ends the session.
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := jfsession.Logout(ac.sessions, c); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func accountResponse(u *models.User) fiber.Map {
	return fiber.Map{
		"id":                          u.ID,
		"username":                    u.Username,
		"email":                       u.Email,
		"role":                        u.Role,
		"has_active_job_posting_plan": u.HasActiveJobPostingPlan,
		"github_username":             u.GithubUsername,
		"portfolio_website":           u.PortfolioWebsite,
		"linkedin_profile":            u.LinkedinProfile,
		"preferred_work_mode":         u.PreferredWorkMode,
		"created_at":                  formatTimePtr(&u.CreatedAt),
		"last_login_at":               formatTimePtr(u.LastLoginAt),
	}
}
