// Package extract turns free-form bilingual post text into typed product
// attributes. Price is the gate: text without a recognizable price is not a
// product post.
package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"StoreScraper/internal/domain"
)

const maxNameLength = 50

// ErrNoPrice rejects texts with no recognizable price pattern.
var ErrNoPrice = errors.New("no recognizable price in text")

var (
	// Tried in order; the first match wins. Labeled form first, then a
	// bare "number + currency keyword" form.
	priceExprs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Ціна|Price)\s*[:\-]?\s*(\d+)\s*(?:грн|UAH|USD|\$)?`),
		regexp.MustCompile(`(?i)(\d+)\s*(?:грн|UAH|USD|\$)`),
	}
	sizeExpr     = regexp.MustCompile(`(?i)\b(XS|S|M|L|XL|XXL)\b`)
	sizeOnlyExpr = regexp.MustCompile(`(?i)^(XS|S|M|L|XL|XXL)$`)
	illegalExpr  = regexp.MustCompile(`[<>:"/\\|?*]`)
	spacesExpr   = regexp.MustCompile(`\s+`)
)

// Parse extracts name, price, size and description from a post text.
// Pure function; returns ErrNoPrice when the text cannot be a product post.
func Parse(text string) (domain.ParsedAttributes, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ParsedAttributes{}, ErrNoPrice
	}

	price, ok := findPrice(trimmed)
	if !ok {
		return domain.ParsedAttributes{}, ErrNoPrice
	}

	lines := strings.Split(trimmed, "\n")
	name := SanitizeName(lines[0])

	size := ""
	if m := sizeExpr.FindStringSubmatch(trimmed); m != nil {
		size = strings.ToUpper(m[1])
	}

	return domain.ParsedAttributes{
		Name:        name,
		Price:       price,
		Size:        size,
		Description: buildDescription(lines[1:]),
		RawText:     text,
	}, nil
}

func findPrice(text string) (int, bool) {
	for _, expr := range priceExprs {
		m := expr.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		price, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return price, true
	}
	return 0, false
}

// buildDescription joins everything after the first line, dropping lines
// that consist solely of a size token (the size is already a typed field).
func buildDescription(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if sizeOnlyExpr.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// SanitizeName makes a text fragment safe to use as a folder name segment:
// characters illegal in path segments are stripped, the result is truncated
// to a fixed rune budget, and internal whitespace collapses to underscores.
func SanitizeName(name string) string {
	name = illegalExpr.ReplaceAllString(name, "")

	runes := []rune(name)
	if len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}

	name = strings.TrimSpace(name)
	return spacesExpr.ReplaceAllString(name, "_")
}
