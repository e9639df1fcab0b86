// Package testutil provides helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every model migrated.
// The pool holds a single connection, so concurrent callers are serialized
// the way row locks serialize them on MySQL.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// CreateUser inserts an account with the given role and credit state.
func CreateUser(t *testing.T, db *gorm.DB, username, role string, credit bool) *models.User {
	t.Helper()

	u := &models.User{
		Username:                username,
		Email:                   username + "@example.test",
		Password:                "x",
		Role:                    role,
		Status:                  models.STATUS_ACTIVE,
		HasActiveJobPostingPlan: credit,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCompany inserts a company profile owned by owner.
func CreateCompany(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Company {
	t.Helper()

	c := &models.Company{OwnerID: owner.ID, Name: name, Slug: strings.ToLower(strings.ReplaceAll(name, " ", "-"))}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Credit reads the credit flag straight from the database.
func Credit(t *testing.T, db *gorm.DB, userID uint) bool {
	t.Helper()

	var u models.User
	require.NoError(t, db.Unscoped().Select("has_active_job_posting_plan").Where("id = ?", userID).First(&u).Error)
	return u.HasActiveJobPostingPlan
}
