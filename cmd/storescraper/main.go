package main

import (
	"context"
	"flag"
	"os"

	"StoreScraper/internal/app"
	"StoreScraper/internal/config"
	"StoreScraper/internal/logging"
)

func main() {
	limit := flag.Int("limit", 0, "number of recent messages to scan (overrides config)")
	channel := flag.String("channel", "", "channel username or t.me link (overrides config)")
	format := flag.String("format", "", "export format: csv or xlsx")
	imageBaseURL := flag.String("image-base-url", "",
		"URL prefix for image cells; leave empty for WebDAV imports (filename only)")
	flag.Parse()

	cfg := config.Load()
	if *limit > 0 {
		cfg.Scrape.Limit = *limit
	}
	if *channel != "" {
		cfg.Telegram.Channel = *channel
	}
	if *format != "" {
		cfg.Export.Format = *format
	}
	if *imageBaseURL != "" {
		cfg.Export.ImageBaseURL = *imageBaseURL
	}

	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}
