package config

import (
	"fmt"
	"log/slog"
	"strings"
)

type TokenEncryptionConfig struct {
	Enabled   bool
	SecretKey RedactedString
}

type LoginConfig struct {
	// ProviderPath is appended to the API base URL to start the identity provider flow
	ProviderPath string
	// LandingURL is where users go after a successful login or a callback without credentials
	LandingURL string
	// LoginPageURL is where users go when their session cannot be verified
	LoginPageURL    string
	TokenEncryption TokenEncryptionConfig
}

func (c *LoginConfig) Validate(e RunningEnvironment) error {
	slog.Info("login configuration info", "config", c)
	if !strings.HasPrefix(c.ProviderPath, "/") {
		return fmt.Errorf("the login provider path %q has to start with /", c.ProviderPath)
	}
	if c.LandingURL == "" {
		return fmt.Errorf("the login landing URL is not defined")
	}
	if c.LoginPageURL == "" {
		return fmt.Errorf("the login page URL is not defined")
	}
	if c.TokenEncryption.Enabled && len(c.TokenEncryption.SecretKey) != 32 {
		return fmt.Errorf(
			"token encryption key has to be 32 bytes long, the provided one is %d long",
			len(c.TokenEncryption.SecretKey),
		)
	}
	if e != Development && !c.TokenEncryption.Enabled {
		return fmt.Errorf("token encryption has to be enabled in production")
	}
	return nil
}
