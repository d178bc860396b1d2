package preview

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/grouping"
)

func attachment(url string) domain.AttachmentRef {
	return domain.AttachmentRef{URL: url, Ext: "jpg"}
}

const previewPage = `
<div class="tgme_channel_history">
  <div class="tgme_widget_message" data-post="teststore/101">
    <div class="tgme_widget_message_text">Старий допис без фото</div>
    <a class="tgme_widget_message_date"><time datetime="2026-03-01T10:00:00+00:00"></time></a>
  </div>
  <div class="tgme_widget_message" data-post="teststore/102">
    <a class="tgme_widget_message_photo_wrap" style="background-image:url('https://cdn.example.org/a1.jpg')"></a>
    <a class="tgme_widget_message_photo_wrap" style="background-image:url('https://cdn.example.org/a2.jpg')"></a>
    <div class="tgme_widget_message_text">Худі
Ціна 500</div>
    <a class="tgme_widget_message_date"><time datetime="2026-03-02T10:00:00+00:00"></time></a>
  </div>
  <div class="tgme_widget_message" data-post="teststore/105">
    <a class="tgme_widget_message_photo_wrap" style="background-image:url('https://cdn.example.org/b1.jpg')"></a>
    <div class="tgme_widget_message_text">Куртка
Ціна 900</div>
    <a class="tgme_widget_message_date"><time datetime="2026-03-03T10:00:00+00:00"></time></a>
  </div>
</div>`

func TestRecentMessages(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/s/teststore" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(previewPage))
	}))
	defer server.Close()

	source := NewSourceWithBase(server.Client(), server.URL, slog.Default())

	messages, err := source.RecentMessages(context.Background(), "@teststore", 0)
	if err != nil {
		t.Fatalf("RecentMessages error: %v", err)
	}

	// Text-only post dropped later by grouping; here it still appears.
	// Newest first: single 105, then the two album photos of 102, then 101.
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].ID != 105 {
		t.Fatalf("expected newest message first, got id %d", messages[0].ID)
	}
	if messages[1].AlbumID != 102 || messages[2].AlbumID != 102 {
		t.Fatalf("album ids broken: %d, %d", messages[1].AlbumID, messages[2].AlbumID)
	}
	if messages[1].Text != "Худі\nЦіна 500" {
		t.Fatalf("album caption lost: %q", messages[1].Text)
	}
	if messages[2].Text != "" {
		t.Fatalf("caption duplicated onto sibling: %q", messages[2].Text)
	}

	groups := grouping.Group(messages)
	if len(groups) != 2 {
		t.Fatalf("expected 2 media groups, got %d", len(groups))
	}
	if len(groups[1].Messages) != 2 {
		t.Fatalf("expected album of 2, got %d", len(groups[1].Messages))
	}
}

func TestRecentMessagesLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(previewPage))
	}))
	defer server.Close()

	source := NewSourceWithBase(server.Client(), server.URL, slog.Default())

	messages, err := source.RecentMessages(context.Background(), "teststore", 1)
	if err != nil {
		t.Fatalf("RecentMessages error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].ID != 105 {
		t.Fatalf("expected id 105, got %d", messages[0].ID)
	}
}

func TestDownloadAttachment(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer server.Close()

	source := NewSourceWithBase(server.Client(), server.URL, slog.Default())

	dest := filepath.Join(t.TempDir(), "img_1.jpg")
	got, err := source.DownloadAttachment(context.Background(),
		attachment(server.URL+"/file/a1.jpg"), dest)
	if err != nil {
		t.Fatalf("DownloadAttachment error: %v", err)
	}
	if got != dest {
		t.Fatalf("unexpected path: %s", got)
	}

	raw, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(raw) != "jpegbytes" {
		t.Fatalf("unexpected payload: %q", raw)
	}
}

func TestDownloadAttachmentHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	source := NewSourceWithBase(server.Client(), server.URL, slog.Default())

	_, err := source.DownloadAttachment(context.Background(),
		attachment(server.URL+"/file/a1.jpg"), filepath.Join(t.TempDir(), "img_1.jpg"))
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}
