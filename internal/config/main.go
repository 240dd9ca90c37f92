package config

import "fmt"

type RunningEnvironment string

const (
	Development RunningEnvironment = "development"
	Production  RunningEnvironment = "production"
)

type Config struct {
	RunningEnvironment RunningEnvironment
	DebugMode          bool
	Server             ServerConfig
	API                APIConfig
	Login              LoginConfig
	Sessions           SessionConfig
	Redis              RedisConfig
	Monitoring         MonitoringConfig
}

func (c *Config) Validate() error {
	if c.RunningEnvironment != Development && c.RunningEnvironment != Production {
		return fmt.Errorf("running environment %q is not one of %q or %q", c.RunningEnvironment, Development, Production)
	}
	err := c.Server.Validate()
	if err != nil {
		return err
	}
	err = c.API.Validate()
	if err != nil {
		return err
	}
	err = c.Login.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	err = c.Sessions.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	err = c.Redis.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	return c.Monitoring.Validate()
}
