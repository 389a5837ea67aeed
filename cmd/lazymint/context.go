package main

import (
	"context"
	"strings"
	"sync"

	lazymint "github.com/goliatone/go-lazymint"
	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string
	options    []lazymint.Option

	configOnce sync.Once
	config     *fileConfig
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, opts ...lazymint.Option) *commandContext {
	return &commandContext{configFlag: configFlag, options: opts}
}

func (c *commandContext) ensureConfig() (*fileConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := loadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = &cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// withRuntime opens the database and orchestrator for the duration of fn.
func (c *commandContext) withRuntime(ctx context.Context, fn func(*runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	rt, err := openRuntime(ctx, *cfg, c.options...)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
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
