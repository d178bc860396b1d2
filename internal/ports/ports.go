package ports

import (
	"context"
	"fmt"
	"time"

	"StoreScraper/internal/domain"
)

// MessageSource lists recent channel posts, most recent first.
type MessageSource interface {
	Authenticate(ctx context.Context) error
	RecentMessages(ctx context.Context, channel string, limit int) ([]domain.RawMessage, error)
	Close(ctx context.Context) error
}

// MediaDownloader transfers a single attachment to a local path and returns
// the path actually written.
type MediaDownloader interface {
	DownloadAttachment(ctx context.Context, ref domain.AttachmentRef, destPath string) (string, error)
}

// GroupFetcher acquires all attachments of one group into a destination
// directory, returning the local filenames that made it to disk.
type GroupFetcher interface {
	FetchGroup(ctx context.Context, group *domain.MessageGroup, destDir string) ([]string, error)
}

// RecordStore persists assembled products and reloads them for the offline
// export path.
type RecordStore interface {
	EnsureFolder(folder string) (string, error)
	SaveRecord(record domain.ProductRecord, rawText string) error
	LoadRecords() ([]domain.ProductRecord, error)
}

// CatalogArchive mirrors assembled records into long-term storage.
type CatalogArchive interface {
	SaveProduct(ctx context.Context, record domain.ProductRecord) error
}

// TableWriter serializes a uniform-width table into a timestamped delimited
// or spreadsheet artifact and returns its path.
type TableWriter interface {
	Write(table domain.ExportTable, format string) (string, error)
}

// FloodWaitError signals that the upstream service demanded a cool-down.
// Runs abort and surface the wait to the operator; retrying inside the
// penalty window risks worsening it.
type FloodWaitError struct {
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("rate limited, wait %s before retrying", e.RetryAfter)
}
