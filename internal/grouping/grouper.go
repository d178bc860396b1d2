// Package grouping partitions an ordered message scan into product
// candidates: albums become one group each, standalone posts become
// singleton groups.
package grouping

import "StoreScraper/internal/domain"

// Group walks the scan in its given order (most recent first) and assigns
// every media-bearing message to exactly one group. Album membership is
// resolved through a keyed map, so lookup stays O(1) per message.
// Messages without media are chatter and are dropped here.
func Group(messages []domain.RawMessage) []*domain.MessageGroup {
	groups := make([]*domain.MessageGroup, 0, len(messages))
	byAlbum := make(map[int64]*domain.MessageGroup)

	for _, msg := range messages {
		if !msg.HasMedia() {
			continue
		}

		if msg.AlbumID == 0 {
			groups = append(groups, &domain.MessageGroup{Messages: []domain.RawMessage{msg}})
			continue
		}

		if g, ok := byAlbum[msg.AlbumID]; ok {
			g.Messages = append(g.Messages, msg)
			continue
		}

		g := &domain.MessageGroup{AlbumID: msg.AlbumID, Messages: []domain.RawMessage{msg}}
		byAlbum[msg.AlbumID] = g
		groups = append(groups, g)
	}

	return groups
}
