package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"timetable/internal/api"
	"timetable/internal/config"
	"timetable/internal/engine"
	"timetable/internal/logging"
)

const daemonStatusTimeout = 750 * time.Millisecond

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	localFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	backendOnce sync.Once
	backend     backend
	backendErr  error
}

func newCommandContext(configFlag *string, jsonFlag, localFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		localFlag:  localFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) forceLocal() bool {
	return c.localFlag != nil && *c.localFlag
}

// apiClient returns a client for the daemon configured in cfg, or nil when
// no API bind address is configured.
func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.APIBind) == "" {
		return nil, nil
	}
	return api.NewClient(cfg.Paths.APIBind, api.WithToken(cfg.Paths.APIToken)), nil
}

// withBackend runs fn against the daemon when it answers, otherwise against
// a local engine opened on the same cache.
func (c *commandContext) withBackend(cmd *cobra.Command, fn func(context.Context, backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c.backendOnce.Do(func() {
		c.backend, c.backendErr = c.openBackend(ctx)
	})
	if c.backendErr != nil {
		return c.backendErr
	}
	return fn(ctx, c.backend)
}

func (c *commandContext) openBackend(ctx context.Context) (backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !c.forceLocal() {
		client, err := c.apiClient()
		if err != nil {
			return nil, err
		}
		if client != nil {
			statusCtx, cancel := context.WithTimeout(ctx, daemonStatusTimeout)
			status, err := client.Status(statusCtx)
			cancel()
			switch {
			case err == nil && status.Daemon.Running:
				return remoteBackend{client}, nil
			case errors.Is(err, api.ErrUnauthorized):
				return nil, fmt.Errorf("connect to daemon at %s: %w (check api_token)", client.BaseURL(), err)
			}
		}
	}

	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, err
	}
	e, err := engine.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &localBackend{cfg: cfg, engine: e}, nil
}

func (c *commandContext) close() error {
	if c.backend == nil {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// shouldColorize reports whether w is an interactive terminal.
func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
