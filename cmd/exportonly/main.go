// Command exportonly re-derives the catalog export purely from previously
// persisted product folders, without touching the network.
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
	format := flag.String("format", "", "export format: csv or xlsx")
	imageBaseURL := flag.String("image-base-url", "",
		"URL prefix for image cells; leave empty for WebDAV imports (filename only)")
	flag.Parse()

	cfg := config.Load()
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

	if err := application.RunExport(context.Background()); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}
