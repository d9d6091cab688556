package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/starford/biblioteca/internal"
	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/catalog"
	"github.com/starford/biblioteca/internal/license"
	"github.com/starford/biblioteca/internal/opener"
	pkgconfig "github.com/starford/biblioteca/pkg/config"
)

// cliApp carries the collaborators that talk to the desktop.
type cliApp struct {
	opener   opener.Opener
	prompter license.Prompter
}

func (a *cliApp) command() *cli.Command {
	return &cli.Command{
		Name:  "biblioteca",
		Usage: "Catalog of library items stored as one spreadsheet per category",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			a.addCommand(),
			a.editCommand(),
			a.deleteCommand(),
			a.showCommand(),
			a.searchCommand(),
			a.exportCommand(),
			a.openCommand(),
			a.categoriesCommand(),
			a.historyCommand(),
			a.recoverCommand(),
			a.watchCommand(),
			a.mcpCommand(),
			a.licenseCommand(),
		},
	}
}

// session is what a command needs once config, logging and the license
// gate are settled.
type session struct {
	cfg    *internal.Config
	logger *slog.Logger
	svc    *catalog.Service
	close  func() error
}

func (a *cliApp) loadConfig(cmd *cli.Command) (*internal.Config, *slog.Logger, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	found, err := pkgconfig.LoadOptional(path, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	logger := internal.NewLogger(cmd.Root().ErrWriter, cfg.App.LogLevel)
	if !found {
		logger.Debug("config file not found, using defaults", slog.String("path", path))
	}
	return cfg, logger, nil
}

func (a *cliApp) gate(cfg *internal.Config, logger *slog.Logger, interactive bool) *license.Gate {
	var p license.Prompter
	if interactive {
		p = a.prompter
	}
	return license.New(cfg.License.MarkerPath, cfg.License.SecretSHA256, cfg.License.MaxAttempts, p, logger)
}

// open loads the config, passes the license gate and opens the catalog.
// interactive=false never prompts (the MCP server owns stdin).
func (a *cliApp) open(cmd *cli.Command, interactive bool) (*session, error) {
	cfg, logger, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.License.Enabled {
		if err := a.gate(cfg, logger, interactive).Ensure(); err != nil {
			return nil, err
		}
	}
	svc, closeFn, err := internal.OpenCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, svc: svc, close: closeFn}, nil
}

func out(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

// exitCode maps the error classes to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return 2
	case errors.Is(err, apperr.ErrRecordNotFound), errors.Is(err, apperr.ErrNoStore):
		return 3
	case errors.Is(err, apperr.ErrDuplicateRecordID), errors.Is(err, apperr.ErrMoveIncomplete):
		return 4
	case errors.Is(err, apperr.ErrLicenseDenied):
		return 5
	default:
		return 1
	}
}
