// Package tabular serializes export tables into timestamped CSV or XLSX
// artifacts ready for catalog import.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/ports"
)

// Format selectors accepted by Write.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	filePrefix = "export_bigcommerce_"
	sheetName  = "Products"
)

// Spreadsheet apps need the BOM to detect UTF-8 in CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer emits artifacts into a fixed directory, timestamping each filename.
type Writer struct {
	dir string
	now func() time.Time
}

var _ ports.TableWriter = (*Writer)(nil)

// NewWriter targets the given directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write serializes the table in the requested format and returns the
// artifact path. An empty format defaults to CSV.
func (w *Writer) Write(table domain.ExportTable, format string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", w.dir, err)
	}

	timestamp := w.now().Format("20060102_150405")

	switch format {
	case FormatXLSX:
		path := filepath.Join(w.dir, filePrefix+timestamp+".xlsx")
		return path, w.writeXLSX(table, path)
	case FormatCSV, "":
		path := filepath.Join(w.dir, filePrefix+timestamp+".csv")
		return path, w.writeCSV(table, path)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

func (w *Writer) writeCSV(table domain.ExportTable, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Columns); err != nil {
		file.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range table.Rows {
		values := make([]string, len(table.Columns))
		for i, column := range table.Columns {
			values[i] = row[column]
		}
		if err := writer.Write(values); err != nil {
			file.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("flush csv: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (w *Writer) writeXLSX(table domain.ExportTable, path string) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	if err := book.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range table.Rows {
		values := make([]any, len(table.Columns))
		for j, column := range table.Columns {
			values[j] = row[column]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := book.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
