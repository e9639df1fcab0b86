package database

import (
	"context"
	"testing"

	"github.com/ManuelReschke/JobFox/internal/pkg/env"
	"github.com/ManuelReschke/JobFox/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	env.Env = map[string]string{
		"DB_USER":     "jobfox",
		"DB_PASSWORD": "secret",
		"DB_HOST":     "db",
		"DB_PORT":     "3307",
		"DB_NAME":     "jobfox_db",
	}
	defer func() { env.Env = nil }()

	assert.Equal(t, "jobfox:secret@tcp(db:3307)/jobfox_db?charset=utf8mb4&parseTime=True&loc=UTC", DSN())
}

func TestPing(t *testing.T) {
	db := testutil.NewDB(t)
	assert.NoError(t, Ping(context.Background(), db))
}
