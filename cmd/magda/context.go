package main

import (
	"magda/internal/config"
)

// commandContext lazily loads configuration shared across subcommands.
type commandContext struct {
	configFlag *string
	cfg        *config.Config
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (ctx *commandContext) ensureConfig() (*config.Config, error) {
	if ctx.cfg != nil {
		return ctx.cfg, nil
	}
	path := ""
	if ctx.configFlag != nil {
		path = *ctx.configFlag
	}
	cfg, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	ctx.cfg = cfg
	return cfg, nil
}
