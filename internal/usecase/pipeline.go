package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/extract"
	"StoreScraper/internal/grouping"
	"StoreScraper/internal/ports"
)

// PipelineDeps wires all driven adapters into the scraping pipeline.
type PipelineDeps struct {
	Source  ports.MessageSource
	Fetcher ports.GroupFetcher
	Store   ports.RecordStore
	Archive ports.CatalogArchive
	Logger  *slog.Logger

	// ProductPause spaces out assembled products to stay under the
	// upstream rate ceiling. A throughput trade-off, not a correctness
	// requirement.
	ProductPause time.Duration
}

// Pipeline implements the product-assembly workflow: scan, group, extract,
// download, persist. Strictly sequential; the upstream service enforces a
// request-rate ceiling that concurrent fan-out would trip.
type Pipeline struct {
	source  ports.MessageSource
	fetcher ports.GroupFetcher
	store   ports.RecordStore
	archive ports.CatalogArchive
	logger  *slog.Logger
	pause   time.Duration

	assembled int
	unparsed  int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:  deps.Source,
		fetcher: deps.Fetcher,
		store:   deps.Store,
		archive: deps.Archive,
		logger:  deps.Logger,
		pause:   deps.ProductPause,
	}
}

// Summary reports how many products were assembled and how many media
// groups were dropped as unparseable or empty.
func (p *Pipeline) Summary() (assembled, unparsed int) {
	return p.assembled, p.unparsed
}

type candidate struct {
	group *domain.MessageGroup
	attrs domain.ParsedAttributes
}

// ScrapeChannel scans the channel's recent posts and assembles one product
// record per parseable media group. Returned records are already persisted.
func (p *Pipeline) ScrapeChannel(ctx context.Context, channel string, limit int) ([]domain.ProductRecord, error) {
	p.logger.Info("scanning channel", "channel", channel, "limit", limit)

	messages, err := p.source.RecentMessages(ctx, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	valid := p.collectCandidates(grouping.Group(messages))
	p.logger.Info("found product candidates", "count", len(valid), "unparsed", p.unparsed)

	runID := uuid.New().String()
	width := len(strconv.Itoa(len(valid)))

	var records []domain.ProductRecord
	for i, c := range valid {
		record, err := p.assemble(ctx, c, i+1, width, runID)
		if err != nil {
			return records, err
		}
		if record == nil {
			continue
		}
		records = append(records, *record)

		if p.pause > 0 && i < len(valid)-1 {
			select {
			case <-time.After(p.pause):
			case <-ctx.Done():
				return records, ctx.Err()
			}
		}
	}

	p.logger.Info("scan complete", "assembled", p.assembled, "unparsed", p.unparsed)
	return records, nil
}

// collectCandidates keeps groups whose representative text yields a price;
// the rest are counted as unparsed and never proceed.
func (p *Pipeline) collectCandidates(groups []*domain.MessageGroup) []candidate {
	var valid []candidate
	for _, g := range groups {
		text := g.RepresentativeText()
		if text == "" {
			p.unparsed++
			continue
		}
		attrs, err := extract.Parse(text)
		if errors.Is(err, extract.ErrNoPrice) {
			p.unparsed++
			continue
		}
		if err != nil {
			p.unparsed++
			continue
		}
		valid = append(valid, candidate{group: g, attrs: attrs})
	}
	return valid
}

func (p *Pipeline) assemble(ctx context.Context, c candidate, seq, width int, runID string) (*domain.ProductRecord, error) {
	folder := fmt.Sprintf("%0*d_%s_%d", width, seq, c.attrs.Name, c.attrs.Price)

	dir, err := p.store.EnsureFolder(folder)
	if err != nil {
		return nil, fmt.Errorf("create folder %s: %w", folder, err)
	}

	files, err := p.fetcher.FetchGroup(ctx, c.group, dir)
	if err != nil {
		return nil, fmt.Errorf("fetch media for %s: %w", folder, err)
	}
	if len(files) == 0 {
		p.logger.Warn("no media downloaded, product discarded", "folder", folder)
		p.unparsed++
		return nil, nil
	}

	lead := c.group.Lead()
	record := domain.ProductRecord{
		Folder:      folder,
		Name:        c.attrs.Name,
		Price:       c.attrs.Price,
		Size:        c.attrs.Size,
		Description: c.attrs.Description,
		Images:      files,
		MessageDate: lead.Date,
		MessageID:   lead.ID,
		RunID:       runID,
	}

	if err := p.store.SaveRecord(record, c.attrs.RawText); err != nil {
		return nil, fmt.Errorf("persist %s: %w", folder, err)
	}

	if p.archive != nil {
		if err := p.archive.SaveProduct(ctx, record); err != nil {
			p.logger.Warn("catalog archive write failed", "folder", folder, "error", err)
		}
	}

	p.assembled++
	p.logger.Info("product assembled", "folder", folder, "images", len(files))
	return &record, nil
}
