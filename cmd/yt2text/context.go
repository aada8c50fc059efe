package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"yt2text/internal/config"
	"yt2text/internal/logging"
	"yt2text/internal/queue"
	"yt2text/internal/workflow"
)

type commandContext struct {
	configFlag string
	logLevel   string
	logFormat  string

	// processorOptions replace the downloader, speech source or formatter.
	processorOptions []workflow.ProcessorOption

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(opts ...workflow.ProcessorOption) *commandContext {
	return &commandContext{processorOptions: opts}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if format := strings.TrimSpace(c.logFormat); format != "" {
			cfg.Logging.Format = strings.ToLower(format)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
		if c.loggerErr != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", c.loggerErr)
		}
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) withStore(fn func(cfg *config.Config, store *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) newProcessor() (*workflow.Processor, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	return workflow.NewProcessor(cfg, logger, c.processorOptions...), cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
