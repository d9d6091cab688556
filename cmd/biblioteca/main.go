package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/starford/biblioteca/internal/license"
	"github.com/starford/biblioteca/internal/opener"
)

func main() {
	app := &cliApp{
		opener:   opener.New(),
		prompter: &license.TerminalPrompter{In: os.Stdin, Out: os.Stderr},
	}
	if err := app.command().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(exitCode(err))
	}
}
