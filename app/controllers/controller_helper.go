package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	"github.com/ManuelReschke/JobFox/internal/pkg/usercontext"
)

var (
	errInvalidBody   = apperror.New(apperror.KindValidationFailed, "InvalidBody", "Request body must be a JSON object.")
	errLoginRequired = apperror.New(apperror.KindAuthenticationRequired, "NotAuthenticated", "Authentication credentials were not provided.")
)

// renderError writes err as a JSON error body with the status of its kind.
func renderError(c *fiber.Ctx, err error) error {
	status := apperror.Status(err)
	if status >= fiber.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.Status(status).JSON(apperror.ToBody(err))
}

// bindJSON decodes the request body into dst.
func bindJSON(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// notFound translates gorm.ErrRecordNotFound into a NotFound error.
func notFound(err error, reason, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.New(apperror.KindNotFound, reason, message)
	}
	return err
}

// currentUser loads the caller's account, or returns nil for anonymous callers.
func currentUser(c *fiber.Ctx, users repository.UserRepository) (*models.User, error) {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn || uc.UserID == 0 {
		return nil, nil
	}
	u, err := users.GetByID(uc.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// requireUser is currentUser for endpoints that need an account.
func requireUser(c *fiber.Ctx, users repository.UserRepository) (*models.User, error) {
	u, err := currentUser(c, users)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errLoginRequired
	}
	return u, nil
}

func paginationFromQuery(c *fiber.Ctx) repository.Pagination {
	return repository.Pagination{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", repository.DefaultPageSize),
	}.Normalize()
}

// queryList returns repeated and comma separated values of key.
func queryList(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, v := range strings.Split(string(raw), ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func queryBool(c *fiber.Ctx, key string) *bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

func listResponse[T any](page *repository.Page[T], render func(*T) fiber.Map) fiber.Map {
	results := make([]fiber.Map, 0, len(page.Items))
	for i := range page.Items {
		results = append(results, render(&page.Items[i]))
	}
	return fiber.Map{
		"count":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
		"results":   results,
	}
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
