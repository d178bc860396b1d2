// Package telegram implements the messaging-session collaborator on top of
// the Bot API: authentication, channel post listing, and file download.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/ports"
	"StoreScraper/internal/scanner"
)

const defaultAPIBase = "https://api.telegram.org"

// Client talks to the Bot API over plain HTTP.
type Client struct {
	botToken string
	apiBase  string
	client   *http.Client
	logger   *slog.Logger
}

var _ scanner.Source = (*Client)(nil)

// NewClient registers the bot token; apiBase is overridable for tests.
func NewClient(botToken, apiBase string, logger *slog.Logger) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		botToken: botToken,
		apiBase:  strings.TrimRight(apiBase, "/"),
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
}

// Name identifies the strategy inside the registry.
func (c *Client) Name() string {
	return "bot"
}

// Authenticate verifies the token via getMe before any scan traffic.
func (c *Client) Authenticate(ctx context.Context) error {
	var me struct {
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := c.call(ctx, "getMe", url.Values{}, &me); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	c.logger.Info("logged in", "bot", me.Username)
	return nil
}

// Close tears down the session. The Bot API is stateless, so this only
// closes idle connections.
func (c *Client) Close(ctx context.Context) error {
	c.client.CloseIdleConnections()
	return nil
}

// RecentMessages drains pending channel-post updates for the channel and
// returns up to limit messages, most recent first.
func (c *Client) RecentMessages(ctx context.Context, channel string, limit int) ([]domain.RawMessage, error) {
	channel = normalizeChannel(channel)

	form := url.Values{}
	form.Set("allowed_updates", `["channel_post"]`)
	form.Set("limit", "100")

	var updates []update
	if err := c.call(ctx, "getUpdates", form, &updates); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]domain.RawMessage, 0, len(updates))
	for _, u := range updates {
		if u.ChannelPost == nil {
			continue
		}
		if !strings.EqualFold(u.ChannelPost.Chat.Username, channel) {
			continue
		}
		messages = append(messages, u.ChannelPost.toRaw())
	}

	// Updates arrive oldest-first; the scan contract is newest-first.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ID > messages[j].ID
	})
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}

	c.logger.Debug("scan returned messages", "channel", channel, "count", len(messages))
	return messages, nil
}

// DownloadAttachment resolves the file path via getFile and streams the
// payload to destPath.
func (c *Client) DownloadAttachment(ctx context.Context, ref domain.AttachmentRef, destPath string) (string, error) {
	form := url.Values{}
	form.Set("file_id", ref.FileID)

	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := c.call(ctx, "getFile", form, &file); err != nil {
		return "", fmt.Errorf("resolve file %s: %w", ref.FileID, err)
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.botToken, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("file download returned %s", resp.Status)
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

// call posts a form to a Bot API method and decodes the result envelope.
// HTTP 429 becomes a FloodWaitError carrying the mandated wait.
func (c *Client) call(ctx context.Context, method string, form url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.botToken, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		Description string          `json:"description"`
		Parameters  *struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || (envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0) {
		wait := time.Minute
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			wait = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return &ports.FloodWaitError{RetryAfter: wait}
	}

	if !envelope.OK {
		return fmt.Errorf("telegram error: %s", envelope.Description)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

type update struct {
	UpdateID    int64       `json:"update_id"`
	ChannelPost *apiMessage `json:"channel_post"`
}

type apiMessage struct {
	MessageID    int64  `json:"message_id"`
	Date         int64  `json:"date"`
	Text         string `json:"text"`
	Caption      string `json:"caption"`
	MediaGroupID string `json:"media_group_id"`
	Chat         struct {
		Username string `json:"username"`
	} `json:"chat"`
	Photo []struct {
		FileID string `json:"file_id"`
		Width  int    `json:"width"`
	} `json:"photo"`
	Document *struct {
		FileID   string `json:"file_id"`
		FileName string `json:"file_name"`
	} `json:"document"`
}

func (m *apiMessage) toRaw() domain.RawMessage {
	raw := domain.RawMessage{
		ID:   m.MessageID,
		Date: time.Unix(m.Date, 0).UTC(),
		Text: m.Text,
	}
	if raw.Text == "" {
		raw.Text = m.Caption
	}
	if id, err := strconv.ParseInt(m.MediaGroupID, 10, 64); err == nil {
		raw.AlbumID = id
	}

	// Photo and document both count as "has a downloadable payload";
	// nothing downstream branches on the kind.
	switch {
	case len(m.Photo) > 0:
		largest := m.Photo[0]
		for _, p := range m.Photo[1:] {
			if p.Width > largest.Width {
				largest = p
			}
		}
		raw.Attachment = &domain.AttachmentRef{FileID: largest.FileID, Ext: "jpg"}
	case m.Document != nil:
		ext := strings.TrimPrefix(filepath.Ext(m.Document.FileName), ".")
		raw.Attachment = &domain.AttachmentRef{FileID: m.Document.FileID, Ext: ext}
	}

	return raw
}

func normalizeChannel(channel string) string {
	channel = strings.TrimSpace(channel)
	channel = strings.TrimPrefix(channel, "https://t.me/")
	channel = strings.TrimPrefix(channel, "t.me/")
	return strings.TrimPrefix(channel, "@")
}
