package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getValidAPIConfig(t *testing.T) APIConfig {
	baseURL, err := url.Parse("https://board.example.org")
	require.NoError(t, err)
	return APIConfig{
		BaseURL:           baseURL,
		RequestTimeout:    15 * time.Second,
		RefreshTimeout:    10 * time.Second,
		ExpiryMargin:      30 * time.Second,
		ReportConcurrency: 4,
	}
}

func TestValidAPIConfig(t *testing.T) {
	config := getValidAPIConfig(t)

	err := config.Validate()

	assert.NoError(t, err)
}

func TestInvalidAPIScheme(t *testing.T) {
	config := getValidAPIConfig(t)
	config.BaseURL.Scheme = "ftp"

	err := config.Validate()

	assert.ErrorContains(t, err, "needs an http or https scheme")
}

func TestInvalidAPITimeouts(t *testing.T) {
	config := getValidAPIConfig(t)
	config.RefreshTimeout = 0

	assert.ErrorContains(t, config.Validate(), "refresh timeout")

	config = getValidAPIConfig(t)
	config.ExpiryMargin = -time.Second

	assert.ErrorContains(t, config.Validate(), "expiry margin")
}

func TestInvalidAPIReportConcurrency(t *testing.T) {
	config := getValidAPIConfig(t)
	config.ReportConcurrency = 0

	assert.ErrorContains(t, config.Validate(), "report concurrency")
}
