// Package common provides shared utilities for command implementations.
package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iAnanich/scrapy-ntk/internal/config"
	"github.com/iAnanich/scrapy-ntk/internal/database"
	"github.com/iAnanich/scrapy-ntk/internal/logger"
	"github.com/iAnanich/scrapy-ntk/internal/shub"
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps loads the configuration and creates the logger.
func NewCommandDeps() (*CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &CommandDeps{
		Logger: log,
		Config: cfg,
	}, nil
}

// NewShubClient creates the cloud job API client from configuration. The
// API key is required; the logged form is redacted.
func (d *CommandDeps) NewShubClient() (*shub.Client, error) {
	if err := d.Config.RequireAPIKey(); err != nil {
		return nil, err
	}

	opts := []shub.Option{
		shub.WithTimeout(d.Config.Shub.Timeout),
		shub.WithPageSize(d.Config.Shub.PageSize),
	}
	if d.Config.Shub.BaseURL != "" {
		opts = append(opts, shub.WithBaseURL(d.Config.Shub.BaseURL))
	}

	d.Logger.Info("Connecting to cloud job API",
		"api_key", shub.ShortcutAPIKey(d.Config.Shub.APIKey))
	return shub.NewClient(d.Config.Shub.APIKey, opts...), nil
}

// NewCheckpoints connects to the checkpoint database and ensures the
// schema exists. The caller owns the returned connection.
func (d *CommandDeps) NewCheckpoints(ctx context.Context) (*database.CheckpointRepository, *sqlx.DB, error) {
	db, err := database.NewPostgresConnection(d.Config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to checkpoint database: %w", err)
	}

	repo := database.NewCheckpointRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, db, nil
}
