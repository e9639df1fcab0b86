package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_JOB_SEEKER = "JOB_SEEKER"
	ROLE_COMPANY    = "COMPANY"
	ROLE_ADMIN      = "ADMIN"
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// User is an account of the job board. HasActiveJobPostingPlan is the one-time
// posting credit and is only ever written by the credits ledger.
type User struct {
	ID                      uint           `gorm:"primaryKey" json:"id"`
	Username                string         `gorm:"type:varchar(150);uniqueIndex" json:"username" validate:"required,min=3,max=150"`
	Email                   string         `gorm:"type:varchar(200);uniqueIndex" json:"email" validate:"required,email,max=200"`
	Password                string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role                    string         `gorm:"type:varchar(20);default:'JOB_SEEKER';index" json:"role" validate:"oneof=JOB_SEEKER COMPANY ADMIN"`
	Status                  string         `gorm:"type:varchar(20);default:'active'" json:"status" validate:"oneof=active disabled"`
	HasActiveJobPostingPlan bool           `gorm:"column:has_active_job_posting_plan;not null;default:false" json:"has_active_job_posting_plan"`
	GithubUsername          string         `gorm:"type:varchar(100);default:''" json:"github_username" validate:"max=100"`
	PortfolioWebsite        string         `gorm:"type:varchar(255);default:''" json:"portfolio_website" validate:"omitempty,http_url,max=255"`
	LinkedinProfile         string         `gorm:"type:varchar(255);default:''" json:"linkedin_profile" validate:"omitempty,http_url,max=255"`
	PreferredWorkMode       string         `gorm:"type:varchar(10);default:'REMOTE'" json:"preferred_work_mode" validate:"omitempty,oneof=REMOTE ONSITE HYBRID"`
	LastLoginAt             *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt               time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds a validated, not yet persisted account. Administrators
// are never created through self registration.
func CreateUser(username string, email string, password string, role string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:          username,
		Email:             email,
		Password:          pw,
		Role:              role,
		Status:            STATUS_ACTIVE,
		PreferredWorkMode: "REMOTE",
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

func (u *User) IsCompany() bool   { return u.Role == ROLE_COMPANY }
func (u *User) IsJobSeeker() bool { return u.Role == ROLE_JOB_SEEKER }
func (u *User) IsAdmin() bool     { return u.Role == ROLE_ADMIN }

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}
