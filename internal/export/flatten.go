// Package export flattens assembled product records into the uniform-width
// table shape a commerce catalog import expects: a fixed field set plus a
// dynamic number of image columns sized to the largest record in the batch.
package export

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"StoreScraper/internal/domain"
)

// DefaultCurrencyDivisor approximates the UAH to EUR exchange rate.
const DefaultCurrencyDivisor = 50

const (
	imageColumnPrefix = "Product Image File – "
	webdavSeparator   = "__"
	fallbackName      = "Unknown Brand"
)

var baseColumns = []string{
	"Item Type",
	"Product Name",
	"Category",
	"Price",
	"Product Description",
	"Brand Name",
	"Product Weight",
	"Product Type",
	"Product Visible?",
}

var (
	// \b is ASCII-only in RE2, so the keyword boundary is spelled out to
	// work after Cyrillic runes.
	junkNameExpr = regexp.MustCompile(`(?i)^(?:Ціна|Price|Cina)(?:[^\pL\pN]|$)`)
	digitsExpr   = regexp.MustCompile(`^\d+$`)

	// Service lines stripped from descriptions. A line is dropped only if
	// the entire trimmed line matches; partial-line noise stays intact.
	noiseLineExprs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Ціна[\s:–-].*$`),
		regexp.MustCompile(`(?i)^Розміри?[\s:–-].*$`),
		regexp.MustCompile(`(?i)^Для замовлення.*$`),
		regexp.MustCompile(`^@\w+$`),
		regexp.MustCompile(`^https?://\S+$`),
	}
)

// Flatten builds one export row per record. Every row carries exactly the
// same columns: the fixed field set plus one image column per slot up to the
// batch-wide maximum; slots past a record's own image count hold empty
// strings, never omitted cells.
func Flatten(records []domain.ProductRecord, currencyDivisor int, imageURLPrefix string) domain.ExportTable {
	if currencyDivisor <= 0 {
		currencyDivisor = DefaultCurrencyDivisor
	}

	maxImages := 0
	for _, r := range records {
		if len(r.Images) > maxImages {
			maxImages = len(r.Images)
		}
	}

	columns := make([]string, 0, len(baseColumns)+maxImages)
	columns = append(columns, baseColumns...)
	for i := 1; i <= maxImages; i++ {
		columns = append(columns, imageColumnPrefix+strconv.Itoa(i))
	}

	rows := make([]domain.ExportRow, 0, len(records))
	for _, r := range records {
		row := domain.ExportRow{
			"Item Type":           "Product",
			"Product Name":        CleanName(r.Name, r.Folder),
			"Category":            "Clothing",
			"Price":               strconv.Itoa(ConvertPrice(r.Price, currencyDivisor)),
			"Product Description": CleanDescription(r.Description),
			"Brand Name":          "",
			"Product Weight":      "0.5",
			"Product Type":        "P",
			"Product Visible?":    "Y",
		}

		for i := 1; i <= maxImages; i++ {
			cell := ""
			if i <= len(r.Images) {
				cell = imageCell(r.Folder, r.Images[i-1], imageURLPrefix)
			}
			row[imageColumnPrefix+strconv.Itoa(i)] = cell
		}

		rows = append(rows, row)
	}

	return domain.ExportTable{Columns: columns, Rows: rows}
}

// BaseColumns returns the fixed (non-image) column set in output order.
func BaseColumns() []string {
	return append([]string(nil), baseColumns...)
}

// ConvertPrice divides the stored price by the currency divisor and rounds
// half away from zero: 75/50 yields 2, not 1.
func ConvertPrice(price, divisor int) int {
	return int(math.Round(float64(price) / float64(divisor)))
}

// CleanName guarantees a non-empty, human-meaningful product name. A name
// that is empty or a bare price keyword is re-derived from the folder slug
// by dropping the leading sequence segment, the trailing price segment, and
// any purely numeric remainder.
func CleanName(raw, folder string) string {
	name := strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))

	if name == "" || junkNameExpr.MatchString(name) {
		var kept []string
		parts := strings.Split(folder, "_")
		if len(parts) > 2 {
			parts = parts[1 : len(parts)-1]
		} else {
			parts = nil
		}
		for _, part := range parts {
			if digitsExpr.MatchString(part) || junkNameExpr.MatchString(part) {
				continue
			}
			kept = append(kept, part)
		}
		name = strings.TrimSpace(strings.Join(kept, " "))
	}

	if name == "" {
		return fallbackName
	}
	return name
}

// CleanDescription strips full-line noise (price and size restatements,
// ordering instructions, contact handles, bare URLs) and joins surviving
// lines with a single space.
func CleanDescription(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isNoiseLine(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, " ")
}

func isNoiseLine(line string) bool {
	for _, expr := range noiseLineExprs {
		if expr.MatchString(line) {
			return true
		}
	}
	return false
}

// imageCell composes the remote filename for an image slot. The record's
// folder is prefixed to the local filename so products sharing one remote
// namespace cannot collide; square brackets are stripped because the WebDAV
// target rejects them.
func imageCell(folder, filename, urlPrefix string) string {
	cleaned := strings.NewReplacer("[", "", "]", "").Replace(folder)
	composed := cleaned + webdavSeparator + filename
	if urlPrefix == "" {
		return composed
	}
	return strings.TrimRight(urlPrefix, "/") + "/" + composed
}
