// Package events defines the payloads exchanged between the indexer and
// searcher over Kafka.
package events

import "time"

// ReindexRequest asks the indexer to run a fresh extract-and-build cycle.
type ReindexRequest struct {
	Reason      string    `json:"reason"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// IndexComplete announces that a new snapshot has been persisted and is
// ready to load.
type IndexComplete struct {
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	CompletedAt time.Time `json:"completed_at"`
}

// CacheInvalidate tells searchers to drop cached query responses.
type CacheInvalidate struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}
