package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopchat/backend/internal/config"
)

func TestNewApp(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	cfg := &config.Config{
		AppPort:        8000,
		DatabasePath:   dbPath,
		AIServiceURL:   "http://localhost:5000",
		AIStreamPath:   "/gemini/chat/rag/stream",
		AIFallbackPath: "/gemini/chat/rag",
		DefaultModel:   "gemini-2.0-flash",
		LogLevel:       "DEBUG",
	}

	a, err := NewApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, a)

	defer func() { require.NoError(t, a.DB.Close()) }()

	assert.NotNil(t, a.DB)
	assert.NotNil(t, a.Server)
	assert.Equal(t, ":8000", a.Server.Addr)

	// The migration run must have created the schema.
	var count int
	err = a.DB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('conversations','messages')").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
