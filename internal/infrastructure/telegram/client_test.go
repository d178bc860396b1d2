package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/ports"
)

func attachment(fileID string) domain.AttachmentRef {
	return domain.AttachmentRef{FileID: fileID, Ext: "jpg"}
}

const updatesPayload = `{
  "ok": true,
  "result": [
    {
      "update_id": 1,
      "channel_post": {
        "message_id": 200,
        "date": 1770000000,
        "chat": {"username": "teststore"},
        "caption": "Худі\nЦіна 500",
        "media_group_id": "77",
        "photo": [
          {"file_id": "small", "width": 90},
          {"file_id": "big", "width": 1280}
        ]
      }
    },
    {
      "update_id": 2,
      "channel_post": {
        "message_id": 201,
        "date": 1770000001,
        "chat": {"username": "teststore"},
        "media_group_id": "77",
        "photo": [{"file_id": "big2", "width": 1280}]
      }
    },
    {
      "update_id": 3,
      "channel_post": {
        "message_id": 300,
        "date": 1770000100,
        "chat": {"username": "otherchannel"},
        "text": "not ours"
      }
    },
    {
      "update_id": 4,
      "channel_post": {
        "message_id": 205,
        "date": 1770000200,
        "chat": {"username": "teststore"},
        "text": "Куртка\nЦіна 900",
        "document": {"file_id": "doc1", "file_name": "jacket.png"}
      }
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient("TOKEN", server.URL, slog.Default())
	client.client = server.Client()
	return client, server
}

func TestRecentMessagesMapsAndFilters(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/getUpdates" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(updatesPayload))
	})

	messages, err := client.RecentMessages(context.Background(), "@teststore", 0)
	if err != nil {
		t.Fatalf("RecentMessages error: %v", err)
	}

	// The foreign channel's post is dropped; order is newest-first.
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].ID != 205 {
		t.Fatalf("expected newest message first, got id %d", messages[0].ID)
	}
	if messages[0].Attachment == nil || messages[0].Attachment.Ext != "png" {
		t.Fatalf("document attachment not mapped: %+v", messages[0].Attachment)
	}

	album := messages[1]
	if album.ID != 201 || album.AlbumID != 77 {
		t.Fatalf("album mapping broken: id %d, album %d", album.ID, album.AlbumID)
	}

	captioned := messages[2]
	if captioned.Text != "Худі\nЦіна 500" {
		t.Fatalf("caption lost: %q", captioned.Text)
	}
	if captioned.Attachment == nil || captioned.Attachment.FileID != "big" {
		t.Fatalf("expected largest photo variant, got %+v", captioned.Attachment)
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/getMe" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true, "result": {"username": "store_bot"}}`))
	})

	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
}

func TestAuthenticateBadToken(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok": false, "description": "Unauthorized"}`))
	})

	if err := client.Authenticate(context.Background()); err == nil {
		t.Fatal("expected error for unauthorized token")
	}
}

func TestFloodWaitSurfaced(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok": false, "description": "Too Many Requests", "parameters": {"retry_after": 17}}`))
	})

	_, err := client.RecentMessages(context.Background(), "teststore", 10)

	var floodWait *ports.FloodWaitError
	if !errors.As(err, &floodWait) {
		t.Fatalf("expected FloodWaitError, got %v", err)
	}
	if floodWait.RetryAfter != 17*time.Second {
		t.Fatalf("unexpected wait duration: %s", floodWait.RetryAfter)
	}
}

func TestDownloadAttachment(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getFile":
			_, _ = w.Write([]byte(`{"ok": true, "result": {"file_path": "photos/file_7.jpg"}}`))
		case "/file/botTOKEN/photos/file_7.jpg":
			_, _ = w.Write([]byte("jpegbytes"))
		default:
			http.NotFound(w, r)
		}
	})

	dest := filepath.Join(t.TempDir(), "img_1.jpg")
	got, err := client.DownloadAttachment(context.Background(), attachment("big"), dest)
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
