package main

import (
	"sync"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/ragagents/config"
	"github.com/smallnest/ragagents/internal/cli"
	"github.com/smallnest/ragagents/log"
	"github.com/smallnest/ragagents/model"
)

type commandContext struct {
	configFlag *string
	// newModel builds the chat model; tests replace it.
	newModel func(config.LLM) (llms.Model, error)

	once   sync.Once
	config *config.Config
	logger log.Logger
	err    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, newModel: model.New}
}

func (c *commandContext) ensureConfig() (*config.Config, log.Logger, error) {
	c.once.Do(func() {
		c.config, c.logger, c.err = cli.Setup(*c.configFlag)
	})
	return c.config, c.logger, c.err
}

func (c *commandContext) model() (llms.Model, error) {
	cfg, _, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return c.newModel(cfg.LLM)
}
