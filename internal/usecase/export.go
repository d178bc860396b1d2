package usecase

import (
	"fmt"
	"log/slog"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/export"
	"StoreScraper/internal/ports"
)

// Exporter flattens assembled records into the catalog import artifact.
type Exporter struct {
	store   ports.RecordStore
	writer  ports.TableWriter
	logger  *slog.Logger
	divisor int
}

// NewExporter constructs the export use case.
func NewExporter(store ports.RecordStore, writer ports.TableWriter, divisor int, logger *slog.Logger) *Exporter {
	return &Exporter{store: store, writer: writer, divisor: divisor, logger: logger}
}

// ExportRecords flattens and serializes the given records. With no records
// this is a clean no-op returning an empty path.
func (e *Exporter) ExportRecords(records []domain.ProductRecord, format, imageBaseURL string) (string, error) {
	if len(records) == 0 {
		e.logger.Info("no products to export")
		return "", nil
	}

	table := export.Flatten(records, e.divisor, imageBaseURL)

	path, err := e.writer.Write(table, format)
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	e.logger.Info("export saved",
		"path", path,
		"products", len(table.Rows),
		"imageColumns", len(table.Columns)-len(export.BaseColumns()))
	return path, nil
}

// ExportStored rebuilds the export purely from previously persisted
// metadata, without touching the network.
func (e *Exporter) ExportStored(format, imageBaseURL string) (string, error) {
	records, err := e.store.LoadRecords()
	if err != nil {
		return "", fmt.Errorf("load records: %w", err)
	}
	if len(records) == 0 {
		e.logger.Info("no product folders found, nothing to export")
		return "", nil
	}
	return e.ExportRecords(records, format, imageBaseURL)
}
