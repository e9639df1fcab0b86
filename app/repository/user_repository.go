package repository

import (
	"strings"
	"time"

	"github.com/ManuelReschke/JobFox/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByLogin retrieves a user by username or email address
func (r *userRepository) GetByLogin(login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := r.db.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether the username or email is taken.
func (r *userRepository) Exists(username, email string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

// GetByAPIKeyHash resolves an active API key hash to its user and user settings.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, nil, gorm.ErrRecordNotFound
	}
	var settings models.UserSettings
	query := r.db.Where("api_key_hash = ? AND api_key_hash <> '' AND api_key_revoked_at IS NULL", trimmed)
	if err := query.First(&settings).Error; err != nil {
		return nil, nil, err
	}
	var user models.User
	if err := r.db.First(&user, settings.UserID).Error; err != nil {
		return nil, nil, err
	}
	now := time.Now()
	_ = r.db.Model(&settings).UpdateColumn("api_key_last_used_at", now).Error
	settings.APIKeyLastUsedAt = &now
	return &user, &settings, nil
}

// UpdateProfile writes only the given columns. The posting credit column is
// owned by the credits ledger and rejected here.
func (r *userRepository) UpdateProfile(id uint, fields map[string]interface{}) error {
	delete(fields, "has_active_job_posting_plan")
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// TouchLastLogin stamps the login time.
func (r *userRepository) TouchLastLogin(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", time.Now()).Error
}

func (r *userRepository) GetSettings(userID uint) (*models.UserSettings, error) {
	return models.GetOrCreateUserSettings(r.db, userID)
}

func (r *userRepository) SaveSettings(settings *models.UserSettings) error {
	return r.db.Save(settings).Error
}
