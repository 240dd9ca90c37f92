package config

import (
	"fmt"
	"net/url"
	"time"
)

// APIConfig describes the board backend that all authenticated calls are sent to.
type APIConfig struct {
	BaseURL        *url.URL
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	// ExpiryMargin enables refreshing JWT access tokens that expire within the margin
	// before they are sent, zero disables it.
	ExpiryMargin time.Duration
	// ReportConcurrency bounds the weekly report fetches of the all users report
	ReportConcurrency int
}

func (c APIConfig) Validate() error {
	if c.BaseURL == nil {
		return fmt.Errorf("the API base URL is not defined")
	}
	if c.BaseURL.Scheme != "http" && c.BaseURL.Scheme != "https" {
		return fmt.Errorf("the API base URL %s needs an http or https scheme", c.BaseURL.String())
	}
	if c.BaseURL.Host == "" {
		return fmt.Errorf("the API base URL %s has no host", c.BaseURL.String())
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("the API request timeout (%s) needs to be greater than 0", c.RequestTimeout)
	}
	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("the API refresh timeout (%s) needs to be greater than 0", c.RefreshTimeout)
	}
	if c.ExpiryMargin < 0 {
		return fmt.Errorf("the API expiry margin (%s) cannot be negative", c.ExpiryMargin)
	}
	if c.ReportConcurrency <= 0 {
		return fmt.Errorf("the API report concurrency (%d) needs to be greater than 0", c.ReportConcurrency)
	}
	return nil
}
