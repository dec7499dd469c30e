// Package cli is the command line entry point: it loads configuration, wires the
// storage backend and runs one of the serve, shell, list or totals commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"greendrake/po/internal/config"
)

// NewApp builds the po command. Output of the shell and listing commands goes to out.
func NewApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "po",
		Usage:     "build, save and manage purchase orders",
		Reader:    in,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "storage backend: file, memory, redis, mongo, postgres or s3 (overrides STORAGE_BACKEND)",
			},
			&cli.StringFlag{
				Name:  "storage-file",
				Usage: "JSON file used by the file backend (overrides STORAGE_FILE)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides LOG_LEVEL)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API over the editing session",
				Action: withRuntime(func(c *cli.Context, rt *Runtime) error {
					return Serve(c.Context, rt)
				}),
			},
			{
				Name:  "shell",
				Usage: "edit purchase orders interactively",
				Action: withRuntime(func(c *cli.Context, rt *Runtime) error {
					return NewShell(rt.Session, c.App.Reader, c.App.Writer).Run(c.Context)
				}),
			},
			{
				Name:  "list",
				Usage: "list saved purchase orders, newest first",
				Action: withRuntime(func(c *cli.Context, rt *Runtime) error {
					PrintOrderList(c.App.Writer, rt.Store.List())
					return nil
				}),
			},
			{
				Name:      "totals",
				Usage:     "print the totals of a saved purchase order",
				ArgsUsage: "<po number>",
				Action: withRuntime(func(c *cli.Context, rt *Runtime) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: po totals \"PO # 00001-2024\"", 2)
					}
					return PrintOrderTotals(c.App.Writer, rt, c.Args().First())
				}),
			},
		},
	}
}

// Run executes the app with os.Args against the process streams.
func Run(ctx context.Context) error {
	return NewApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args)
}

func withRuntime(action func(c *cli.Context, rt *Runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to load configuration: %v", err), 1)
		}
		logger, err := NewLogger(cfg.LogLevel)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer func() { _ = logger.Sync() }()

		rt, err := Bootstrap(c.Context, cfg, logger)
		if err != nil {
			logger.Error("failed to initialise storage", zap.Error(err))
			return cli.Exit(fmt.Sprintf("Failed to initialise storage: %v", err), 1)
		}
		defer rt.Close()
		return action(c, rt)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if v := c.String("backend"); v != "" {
		if err := os.Setenv("STORAGE_BACKEND", v); err != nil {
			return nil, err
		}
	}
	if v := c.String("storage-file"); v != "" {
		if err := os.Setenv("STORAGE_FILE", v); err != nil {
			return nil, err
		}
	}
	if v := c.String("log-level"); v != "" {
		if err := os.Setenv("LOG_LEVEL", v); err != nil {
			return nil, err
		}
	}
	return config.Load()
}
