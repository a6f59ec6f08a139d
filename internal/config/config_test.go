package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err, "the shipped default config must start the server as-is")

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.NotEmpty(t, cfg.Auth.Permissions["workflow:definition:activate"])
}

func TestValidateRejectsEmptySecret(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "data/test.db"},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 0},
		Database: DatabaseConfig{Path: "data/test.db"},
		Auth:     AuthConfig{JWTSecret: "s"},
	}
	assert.Error(t, cfg.Validate())
}
