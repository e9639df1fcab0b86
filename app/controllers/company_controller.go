package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
)

var errCompanyNotOwner = apperror.New(apperror.KindAuthorizationDenied, "NotOwner", "You can only manage your own company profile.")

type CompanyController struct {
	users     repository.UserRepository
	companies repository.CompanyRepository
}

func NewCompanyController(users repository.UserRepository, companies repository.CompanyRepository) *CompanyController {
	return &CompanyController{users: users, companies: companies}
}

// HandleList returns a filtered page of companies.
func (cc *CompanyController) HandleList(c *fiber.Ctx) error {
	page, err := cc.companies.List(repository.CompanyFilter{
		Search:     c.Query("search"),
		Name:       c.Query("name"),
		Industry:   queryList(c, "industry"),
		Ordering:   c.Query("ordering"),
		Pagination: paginationFromQuery(c),
	})
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(listResponse(page, companyResponse))
}

// HandleGet returns a company by numeric id or slug.
func (cc *CompanyController) HandleGet(c *fiber.Ctx) error {
	company, err := cc.lookup(c)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(companyResponse(company))
}

// HandleCreate creates the caller's company profile.
func (cc *CompanyController) HandleCreate(c *fiber.Ctx) error {
	account, err := requireUser(c, cc.users)
	if err != nil {
		return renderError(c, err)
	}
	if !account.IsCompany() {
		return renderError(c, apperror.New(apperror.KindAuthorizationDenied, "WrongRole", "Only company accounts may create a company profile."))
	}
	if _, err := cc.companies.GetByOwnerID(account.ID); err == nil {
		return renderError(c, apperror.New(apperror.KindConflict, "CompanyExists", "You already have a company profile."))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return renderError(c, err)
	}

	var in models.CompanyInput
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	if err := cc.validate(&in, 0); err != nil {
		return renderError(c, err)
	}

	company := &models.Company{OwnerID: account.ID}
	in.Apply(company)
	if err := cc.companies.Create(company, in.Industry); err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(companyResponse(company))
}

// HandleUpdate replaces (PUT) or merges (PATCH) the writable fields. Owner
// and slug never change.
func (cc *CompanyController) HandleUpdate(c *fiber.Ctx) error {
	company, err := cc.manageable(c)
	if err != nil {
		return renderError(c, err)
	}

	in := models.CompanyInput{}
	if c.Method() == fiber.MethodPatch {
		in = company.ToInput()
	}
	if err := bindJSON(c, &in); err != nil {
		return renderError(c, err)
	}
	if err := cc.validate(&in, company.ID); err != nil {
		return renderError(c, err)
	}

	in.Apply(company)
	if err := cc.companies.Update(company, in.Industry); err != nil {
		return renderError(c, err)
	}
	return c.JSON(companyResponse(company))
}

// HandleDelete removes the company and its jobs.
func (cc *CompanyController) HandleDelete(c *fiber.Ctx) error {
	company, err := cc.manageable(c)
	if err != nil {
		return renderError(c, err)
	}
	if err := cc.companies.Delete(company); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (cc *CompanyController) validate(in *models.CompanyInput, exceptID uint) error {
	if fields := in.Validate(); fields != nil {
		return apperror.Validation(fields)
	}
	taken, err := cc.companies.NameExists(in.Name, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Validation(map[string]string{"name": "Company with this name already exists."})
	}
	return nil
}

func (cc *CompanyController) lookup(c *fiber.Ctx) (*models.Company, error) {
	var company *models.Company
	var err error
	if id, ok := paramID(c, "ref"); ok {
		company, err = cc.companies.GetByID(id)
	} else {
		company, err = cc.companies.GetBySlug(c.Params("ref"))
	}
	if err != nil {
		return nil, notFound(err, "CompanyNotFound", "Company not found.")
	}
	return company, nil
}

// manageable loads the addressed company and checks that the caller owns it
// or is an admin.
func (cc *CompanyController) manageable(c *fiber.Ctx) (*models.Company, error) {
	account, err := requireUser(c, cc.users)
	if err != nil {
		return nil, err
	}
	company, err := cc.lookup(c)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != account.ID && !account.IsAdmin() {
		return nil, errCompanyNotOwner
	}
	return company, nil
}

func companyResponse(company *models.Company) fiber.Map {
	return fiber.Map{
		"id":          company.ID,
		"owner_id":    company.OwnerID,
		"name":        company.Name,
		"slug":        company.Slug,
		"website":     company.Website,
		"description": company.Description,
		"industry":    models.TagNames(company.Industry),
		"created_at":  formatTimePtr(&company.CreatedAt),
		"updated_at":  formatTimePtr(&company.UpdatedAt),
	}
}
