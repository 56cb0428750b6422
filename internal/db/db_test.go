package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seed-eval/internal/config"
	"seed-eval/internal/model"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	conn, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	assert.True(t, conn.Migrator().HasTable(&model.HarnessRun{}))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
