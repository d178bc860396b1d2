// Package fetch downloads a group's attachments with bounded retry.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/ports"
)

const (
	maxAttempts      = 3
	defaultBaseDelay = 3 * time.Second
)

// Fetcher retries each attachment up to maxAttempts with linear backoff
// (attempt * baseDelay). An exhausted attachment is skipped, never fatal to
// its product.
type Fetcher struct {
	downloader ports.MediaDownloader
	baseDelay  time.Duration
	logger     *slog.Logger
}

var _ ports.GroupFetcher = (*Fetcher)(nil)

// New wires a downloader; a negative baseDelay falls back to the default.
// Zero disables waiting so tests can run without sleeping.
func New(downloader ports.MediaDownloader, baseDelay time.Duration, logger *slog.Logger) *Fetcher {
	if baseDelay < 0 {
		baseDelay = defaultBaseDelay
	}
	return &Fetcher{downloader: downloader, baseDelay: baseDelay, logger: logger}
}

// FetchGroup transfers every attachment of the group, in order, to
// deterministic filenames img_<position>.<ext>. The position is 1-based
// within the group. The returned error is non-nil only for flood-wait
// signals and cancellation; ordinary transfer failures are logged and the
// attachment is dropped.
func (f *Fetcher) FetchGroup(ctx context.Context, group *domain.MessageGroup, destDir string) ([]string, error) {
	var files []string
	position := 0

	for _, msg := range group.Messages {
		if !msg.HasMedia() {
			continue
		}
		position++

		ext := msg.Attachment.Ext
		if ext == "" {
			ext = "jpg"
		}
		dest := filepath.Join(destDir, fmt.Sprintf("img_%d.%s", position, ext))

		name, err := f.download(ctx, *msg.Attachment, dest, position)
		if err != nil {
			var floodWait *ports.FloodWaitError
			if errors.As(err, &floodWait) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return files, err
			}
			continue
		}
		files = append(files, name)
	}

	return files, nil
}

func (f *Fetcher) download(ctx context.Context, ref domain.AttachmentRef, dest string, position int) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		path, err := f.downloader.DownloadAttachment(ctx, ref, dest)
		if err == nil {
			return filepath.Base(path), nil
		}
		lastErr = err

		var floodWait *ports.FloodWaitError
		if errors.As(err, &floodWait) {
			return "", err
		}

		if attempt == maxAttempts {
			f.logger.Warn("attachment skipped",
				"position", position, "attempts", maxAttempts, "error", err)
			break
		}

		wait := time.Duration(attempt) * f.baseDelay
		f.logger.Info("retrying attachment",
			"position", position, "attempt", attempt, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", lastErr
}
