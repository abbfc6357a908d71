package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateExecutor(); err != nil {
		return err
	}
	if err := c.validatePlugins(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if len(c.Paths.LibraryDirs) == 0 {
		return errors.New("paths.library_dirs must include at least one directory")
	}
	if strings.TrimSpace(c.Paths.PolicyPath) == "" {
		return errors.New("paths.policy_path must be set")
	}
	if strings.TrimSpace(c.Paths.AuditDBPath) == "" {
		return errors.New("paths.audit_db_path must be set")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count <= 0 {
		return errors.New("workers.count must be positive")
	}
	if c.Workers.QueueDepth <= 0 {
		return errors.New("workers.queue_depth must be positive")
	}
	return nil
}

func (c *Config) validateExecutor() error {
	if c.Executor.MinSizeRatio <= 0 || c.Executor.MinSizeRatio > 1 {
		return errors.New("executor.min_size_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) validatePlugins() error {
	if err := validatePlugin("radarr", c.Plugins.Radarr); err != nil {
		return err
	}
	if err := validatePlugin("sonarr", c.Plugins.Sonarr); err != nil {
		return err
	}
	return nil
}

func validatePlugin(name string, p Plugin) error {
	if !p.Enabled {
		return nil
	}
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("plugins.%s.url must be set when plugins.%s.enabled is true", name, name)
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("plugins.%s.api_key must be set when plugins.%s.enabled is true (or set %s_API_KEY)", name, name, strings.ToUpper(name))
	}
	return nil
}
