package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/customeros/mailchecker/config"
	"github.com/customeros/mailchecker/internal/enum"
	"github.com/customeros/mailchecker/server"
)

func main() {
	app := &cli.App{
		Name:            "mailchecker",
		Usage:           "notify when new mail arrives in an IMAP inbox",
		UsageText:       "mailchecker [push]",
		HideHelp:        true,
		HideVersion:     true,
		SkipFlagParsing: true,
		Action:          run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Printf("mailchecker: %v", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	// only a single "push" argument selects push mode
	mode := enum.ModePolling
	if c.NArg() == 1 {
		mode = enum.ParseMode(c.Args().First())
	}

	cfg, err := config.InitConfig()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, mode)
	if err != nil {
		return err
	}

	return srv.Run()
}
