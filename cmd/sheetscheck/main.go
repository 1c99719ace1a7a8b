// Command sheetscheck verifies that the configured service account can read
// the questionnaire spreadsheet.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	corecmd "github.com/m3rciful/intakebot/core/cmd"
	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/app"
	"github.com/m3rciful/intakebot/internal/sheets"
)

func main() {
	os.Exit(run())
}

func run() int {
	path, err := corecmd.ConfigPath(corecmd.DefaultConfigEnv, "config.yaml")
	if err != nil {
		log.Print(err)
		return 2
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		log.Print(err)
		return 2
	}
	if err := logger.InitLogger(&cfg.Config); err != nil {
		log.Print(err)
		return 2
	}
	defer func() { _ = logger.Shutdown() }()

	ctx, cancel := context.WithTimeout(logger.Background(), 30*time.Second)
	defer cancel()

	storage, err := sheets.Open(ctx, cfg.Sheets, nil)
	if err != nil {
		logger.Error(ctx, "sheets", "check.open", logger.Err(err))
		return 1
	}
	title, err := storage.Check(ctx)
	if err != nil {
		logger.Error(ctx, "sheets", "check.fail", logger.Err(err),
			slog.String("hint", "set GOOGLE_SHEET_ID, point credentials_file at the service account key and share the spreadsheet with it"),
		)
		return 1
	}
	logger.Info(ctx, "sheets", "check.ok", slog.String("title", title))
	return 0
}
