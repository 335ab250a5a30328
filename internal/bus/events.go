// Package bus provides the typed event surface for the memory graph.
// Components publish an event once per completed operation, after the
// corresponding state transition has been committed.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a graph lifecycle event.
type EventType string

const (
	// EventGraphBuilt fires after the graph is populated from an entry set.
	EventGraphBuilt EventType = "graph:built"

	// EventPageRankComputed fires after a PageRank computation completes.
	EventPageRankComputed EventType = "pagerank:computed"

	// EventCommunitiesDetected fires after community detection completes.
	EventCommunitiesDetected EventType = "communities:detected"
)

// Event is a single graph lifecycle notification. Count fields are
// populated per type: NodeCount for graph:built, Iterations for
// pagerank:computed, CommunityCount for communities:detected.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`

	NodeCount      int `json:"node_count,omitempty"`
	Iterations     int `json:"iterations,omitempty"`
	CommunityCount int `json:"community_count,omitempty"`
}

// NewEvent creates an event with a generated id and current timestamp.
func NewEvent(eventType EventType) Event {
	return Event{
		ID:        "evt_" + uuid.New().String()[:8],
		Timestamp: time.Now().UTC(),
		Type:      eventType,
	}
}
