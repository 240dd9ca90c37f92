package config

import (
	"fmt"
	"time"
)

type SessionConfig struct {
	IdleSessionTTLSeconds int
	MaxSessionTTLSeconds  int
	SweepInterval         time.Duration
	CookieSecure          bool
}

func (c *SessionConfig) Validate(e RunningEnvironment) error {
	if c.IdleSessionTTLSeconds <= 0 {
		return fmt.Errorf("idle session TTL seconds (%d) needs to be greater than 0", c.IdleSessionTTLSeconds)
	}
	if c.MaxSessionTTLSeconds > 0 && c.IdleSessionTTLSeconds > c.MaxSessionTTLSeconds {
		return fmt.Errorf("max session TTL seconds (%d) cannot be less than idle session TTL seconds (%d)", c.MaxSessionTTLSeconds, c.IdleSessionTTLSeconds)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("session sweep interval (%s) needs to be greater than 0", c.SweepInterval)
	}
	if e != Development && !c.CookieSecure {
		return fmt.Errorf("session cookies have to be secure in production")
	}
	return nil
}

func (c SessionConfig) IdleTTL() time.Duration {
	return time.Duration(c.IdleSessionTTLSeconds) * time.Second
}

// MaxTTL is the lifetime of stored credentials, it falls back to the idle TTL when unset.
func (c SessionConfig) MaxTTL() time.Duration {
	if c.MaxSessionTTLSeconds <= 0 {
		return c.IdleTTL()
	}
	return time.Duration(c.MaxSessionTTLSeconds) * time.Second
}
