package domain

import "time"

// AttachmentRef points at a downloadable media payload on the source side.
// Depending on the source it carries either an API file identifier or a
// direct URL; downstream code never distinguishes photo from document.
type AttachmentRef struct {
	FileID string
	URL    string
	Ext    string
}

// RawMessage is a single channel post as delivered by a message source,
// ordered most-recent-first within a scan.
type RawMessage struct {
	ID         int64
	Date       time.Time
	Text       string
	AlbumID    int64 // 0 when the post is not part of an album
	Attachment *AttachmentRef
}

// HasMedia reports whether the message carries a downloadable payload.
func (m RawMessage) HasMedia() bool {
	return m.Attachment != nil
}

// MessageGroup is one product candidate: a standalone post or a whole album.
// Messages keep their first-appearance order from the scan.
type MessageGroup struct {
	AlbumID  int64
	Messages []RawMessage
}

// Lead returns the first-encountered message of the group.
func (g MessageGroup) Lead() RawMessage {
	return g.Messages[0]
}

// RepresentativeText returns the first non-empty text found in stored order.
// Album captions are not guaranteed to sit on the lead message.
func (g MessageGroup) RepresentativeText() string {
	for _, m := range g.Messages {
		if m.Text != "" {
			return m.Text
		}
	}
	return ""
}

// ParsedAttributes holds the structured fields extracted from a post text.
// An instance only exists for texts that yielded a price.
type ParsedAttributes struct {
	Name        string
	Price       int
	Size        string // empty when absent
	Description string
	RawText     string
}

// ProductRecord is a fully assembled product: parsed attributes plus the
// attachments that made it to disk. Immutable once persisted.
type ProductRecord struct {
	Folder      string
	Name        string
	Price       int
	Size        string
	Description string
	Images      []string
	MessageDate time.Time
	MessageID   int64
	RunID       string
}

// ExportRow maps column names to scalar cell values.
type ExportRow map[string]string

// ExportTable is an ordered set of uniform-width rows; Columns fixes both
// the column order and the width every row must fill.
type ExportTable struct {
	Columns []string
	Rows    []ExportRow
}
