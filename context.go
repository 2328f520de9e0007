package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"imageconverter/config"
	"imageconverter/credentials"
	"imageconverter/identity"
	"imageconverter/logger"
)

type commandContext struct {
	configFlag *string
	envFlag    *string
	levelFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	store *credentials.Store
}

func newCommandContext(configFlag, envFlag, levelFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
		levelFlag:  levelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := config.LoadDotEnv(flagValue(c.envFlag)); err != nil {
			c.configErr = err
			return
		}
		cfg, path, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if err := initLogging(cfg, flagValue(c.levelFlag)); err != nil {
			c.configErr = err
			return
		}
		if exists {
			logger.Debugf("Loaded configuration from %s", path)
		} else {
			logger.Debugf("No configuration file at %s; using defaults", path)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func initLogging(cfg *config.Config, levelOverride string) error {
	level := cfg.Logging.Level
	if levelOverride != "" {
		level = levelOverride
	}
	filePath := cfg.LogFilePath()
	if !cfg.Logging.Console && filePath == "" {
		logger.InitWriter(io.Discard)
	} else if err := logger.Init(logger.Options{FilePath: filePath, Console: cfg.Logging.Console}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(level))
	return nil
}

// credentialsStore opens the Pebble store on first use. Pebble holds an
// exclusive lock, so only one process can have it open at a time.
func (c *commandContext) credentialsStore() (*credentials.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger.Debug("Initializing credentials database")
	store, err := credentials.Open(cfg.CredentialsDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credentials store: %w", err)
	}
	c.store = store
	return store, nil
}

func (c *commandContext) identityProvider(prompter identity.Prompter) (*identity.LocalProvider, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.credentialsStore()
	if err != nil {
		return nil, err
	}
	if prompter == nil {
		prompter = identity.DialogPrompter{}
	}
	return identity.NewLocalProvider(store, prompter, identity.LocalOptions{
		Issuer:   cfg.Identity.Issuer,
		Secret:   cfg.Identity.TokenSecret,
		TokenTTL: time.Duration(cfg.Identity.TokenTTLSeconds) * time.Second,
	})
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func flagValue(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
