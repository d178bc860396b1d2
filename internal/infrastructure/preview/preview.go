// Package preview implements a credential-free message source by scraping
// the public t.me/s/<channel> preview page. It only sees what Telegram
// exposes publicly, but needs no bot token.
package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/scanner"
)

const defaultBaseURL = "https://t.me"

var bgImageExpr = regexp.MustCompile(`background-image:\s*url\('([^']+)'\)`)

// Source scrapes the widget markup of the public channel preview.
type Source struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var _ scanner.Source = (*Source)(nil)

// NewSource wires an HTTP client; a nil client gets a sane timeout.
func NewSource(client *http.Client, logger *slog.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Source{client: client, baseURL: defaultBaseURL, logger: logger}
}

// NewSourceWithBase is NewSource with an overridden page origin, for tests.
func NewSourceWithBase(client *http.Client, baseURL string, logger *slog.Logger) *Source {
	s := NewSource(client, logger)
	s.baseURL = strings.TrimRight(baseURL, "/")
	return s
}

// Name identifies the strategy inside the registry.
func (s *Source) Name() string {
	return "preview"
}

// Authenticate is a no-op: the preview page is public.
func (s *Source) Authenticate(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Source) Close(ctx context.Context) error {
	return nil
}

// RecentMessages fetches the preview page and extracts up to limit posts,
// most recent first. An album post renders as one widget with several photo
// wraps; each wrap becomes its own RawMessage sharing the widget's id as
// album key, so grouping reassembles them exactly like Bot API albums.
func (s *Source) RecentMessages(ctx context.Context, channel string, limit int) ([]domain.RawMessage, error) {
	channel = strings.TrimPrefix(strings.TrimSpace(channel), "@")
	doc, err := s.fetchDocument(ctx, fmt.Sprintf("%s/s/%s", s.baseURL, channel))
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channel, err)
	}

	var messages []domain.RawMessage
	doc.Find(".tgme_widget_message").Each(func(i int, widget *goquery.Selection) {
		messages = append(messages, extractWidget(widget)...)
	})

	// The page lists oldest first; the scan contract is newest-first, with
	// album siblings kept adjacent in their on-page order.
	reverseByPost(messages)
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}

	s.logger.Debug("preview scan done", "channel", channel, "messages", len(messages))
	return messages, nil
}

// DownloadAttachment performs a plain GET of the photo URL captured during
// the scan.
func (s *Source) DownloadAttachment(ctx context.Context, ref domain.AttachmentRef, destPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download returned %s", resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", destPath, err)
	}

	return destPath, nil
}

func (s *Source) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "StoreScraper/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("preview returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractWidget(widget *goquery.Selection) []domain.RawMessage {
	dataPost, _ := widget.Attr("data-post")
	id := parsePostID(dataPost)
	if id == 0 {
		return nil
	}

	text := strings.TrimSpace(widget.Find(".tgme_widget_message_text").First().Text())
	date := parseWidgetDate(widget)

	var photoURLs []string
	widget.Find(".tgme_widget_message_photo_wrap").Each(func(i int, wrap *goquery.Selection) {
		style, _ := wrap.Attr("style")
		if m := bgImageExpr.FindStringSubmatch(style); m != nil {
			photoURLs = append(photoURLs, m[1])
		}
	})

	if len(photoURLs) == 0 {
		if text == "" {
			return nil
		}
		return []domain.RawMessage{{ID: id, Date: date, Text: text}}
	}

	albumID := int64(0)
	if len(photoURLs) > 1 {
		albumID = id
	}

	messages := make([]domain.RawMessage, 0, len(photoURLs))
	for i, photoURL := range photoURLs {
		msg := domain.RawMessage{
			ID:         id + int64(i),
			Date:       date,
			AlbumID:    albumID,
			Attachment: &domain.AttachmentRef{URL: photoURL, Ext: "jpg"},
		}
		if i == 0 {
			msg.Text = text
		}
		messages = append(messages, msg)
	}
	return messages
}

// parsePostID extracts the numeric id from a "channel/123" data-post value.
func parsePostID(dataPost string) int64 {
	idx := strings.LastIndex(dataPost, "/")
	if idx < 0 || idx == len(dataPost)-1 {
		return 0
	}
	id, err := strconv.ParseInt(dataPost[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func parseWidgetDate(widget *goquery.Selection) time.Time {
	datetime, _ := widget.Find(".tgme_widget_message_date time").First().Attr("datetime")
	if parsed, err := time.Parse(time.RFC3339, datetime); err == nil {
		return parsed.UTC()
	}
	return time.Now().UTC()
}

// reverseByPost flips page order (oldest first) into scan order (newest
// first) without splitting album runs: siblings share an AlbumID and stay
// in their original relative order.
func reverseByPost(messages []domain.RawMessage) {
	var runs [][]domain.RawMessage
	for i := 0; i < len(messages); {
		j := i + 1
		for j < len(messages) && messages[i].AlbumID != 0 && messages[j].AlbumID == messages[i].AlbumID {
			j++
		}
		runs = append(runs, messages[i:j:j])
		i = j
	}

	out := make([]domain.RawMessage, 0, len(messages))
	for i := len(runs) - 1; i >= 0; i-- {
		out = append(out, runs[i]...)
	}
	copy(messages, out)
}
