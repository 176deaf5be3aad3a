package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"avatarstudio/internal/config"
	"avatarstudio/internal/generation"
	"avatarstudio/internal/jobclient"
	"avatarstudio/internal/logging"
	"avatarstudio/internal/project"
	"avatarstudio/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		level = *c.logLevelFlag
	}
	return logging.New(logging.Options{
		Level:    level,
		Format:   cfg.Logging.Format,
		Writer:   cmd.ErrOrStderr(),
		FilePath: filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
	})
}

func (c *commandContext) jobClient(logger *slog.Logger) (*jobclient.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return jobclient.New(jobclient.Config{
		BaseURL:        cfg.Service.BaseURL,
		APIPrefix:      cfg.Service.APIPrefix,
		APIToken:       cfg.Service.APIToken,
		RequestTimeout: cfg.RequestTimeout(),
		HealthTimeout:  cfg.HealthTimeout(),
		Style:          cfg.Service.Style,
		Tier:           cfg.Service.Tier,
	}, jobclient.WithLogger(logger)), nil
}

// session bundles everything a project command needs for one invocation.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *store.Store
	projects *project.Store
	client   *jobclient.Client
}

func (s *session) controller() *generation.Controller {
	return generation.NewFromConfig(s.cfg, s.projects, s.client,
		generation.WithHistory(s.db),
		generation.WithLogger(s.logger),
	)
}

// withSession restores the saved project, runs fn, and closes the database.
func (c *commandContext) withSession(cmd *cobra.Command, fn func(*session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open project database: %w", err)
	}
	defer db.Close()

	state, restored, err := db.RestoreProject(cmd.Context())
	if errors.Is(err, store.ErrCorruptProject) {
		// the next save overwrites the unreadable record
		logging.WarnWithContext(logger, "saved project unreadable; starting a new project", "project_corrupt",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "re-import an exported project if you have one"),
			logging.String(logging.FieldImpact, "previous wizard selections were discarded"),
		)
		state, restored, err = project.New(), false, nil
	}
	if err != nil {
		return err
	}
	if restored {
		logger.Debug("project restored",
			logging.String(logging.FieldProjectID, state.ProjectID),
			logging.Int(logging.FieldStep, state.CurrentStep),
		)
	}
	client, err := c.jobClient(logger)
	if err != nil {
		return err
	}
	return fn(&session{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		projects: project.NewStore(state, project.WithPersister(db), project.WithLogger(logger)),
		client:   client,
	})
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
