package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("acme", "hr@acme.test", "s3cret-pass", ROLE_COMPANY)
	require.NoError(t, err)

	assert.True(t, u.IsCompany())
	assert.True(t, u.IsActive())
	assert.False(t, u.HasActiveJobPostingPlan)
	assert.NotEqual(t, "s3cret-pass", u.Password)
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	_, err := CreateUser("acme", "hr@acme.test", "s3cret-pass", "OWNER")
	assert.Error(t, err)
}
