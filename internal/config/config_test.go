package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Port:                  "8460",
		Env:                   "development",
		JWTSecret:             "secure-secret-at-least-32-chars-long",
		DBPassword:            "secure-password",
		DBSSLMode:             "disable",
		RedisURL:              "redis://localhost:6379",
		StorageRoot:           "./data/files",
		DownloadWindowMinutes: 120,
		RequestWindowHours:    72,
	}
}

func TestConfigValidateRequiredFields(t *testing.T) {
	c := validConfig()
	assert.NoError(t, c.Validate())

	c = validConfig()
	c.Port = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.JWTSecret = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.StorageRoot = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DownloadWindowMinutes = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.RequestWindowHours = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DownloadWindowMinutes = 240
	c.RequestWindowHours = 1
	assert.Error(t, c.Validate())
}

func TestConfigValidateProduction(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Hardened", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
		}, false},
		{"Default JWT Secret", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"Short JWT Secret", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = "short"
		}, true},
		{"Weak DB Password", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.DBPassword = "password"
		}, true},
		{"SSL Disabled", func(c *Config) {
			c.Env = "prod"
			c.DBSSLMode = "disable"
		}, true},
		{"Development SSL Disabled", func(c *Config) {
			c.Env = "development"
			c.DBSSLMode = "disable"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDownloadWindow(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "2h0m0s", c.DownloadWindow().String())
}
