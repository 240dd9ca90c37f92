package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func getValidServerConfig() ServerConfig {
	return ServerConfig{
		Host:       "0.0.0.0",
		Port:       8080,
		RateLimits: RateLimits{Enabled: true, Rate: 10, Burst: 20},
	}
}

func TestValidServerConfig(t *testing.T) {
	assert.NoError(t, getValidServerConfig().Validate())
}

func TestInvalidServerConfig(t *testing.T) {
	config := getValidServerConfig()
	config.Port = 0
	assert.Error(t, config.Validate())

	config = getValidServerConfig()
	config.RateLimits.Burst = 0
	assert.ErrorContains(t, config.Validate(), "rate limits")
}
