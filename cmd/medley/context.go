package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"medley/internal/config"
	"medley/internal/policy"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	policyCache *policy.Cache
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		policyCache: policy.NewCache(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loadPolicy compiles the policy at path, falling back to the configured
// policy when path is empty.
func (c *commandContext) loadPolicy(path string) (*policy.Policy, error) {
	if strings.TrimSpace(path) == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Paths.PolicyPath
	}
	return c.policyCache.Get(path)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
