package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the hand-off server
const (
	TopicStatus = "pipeline_status" // PipelineStatus events, one per stage
	TopicGraph  = "graph"           // GraphUpdate events after each successful run
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "pipeline_status", "graph")
	Type    string          `json:"type"`    // Event type (e.g., "load_nodes", "assemble", "ready", "error")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// PipelineStatus represents the progress of a pipeline run
type PipelineStatus struct {
	State   string `json:"state"`   // Stage name, "ready" or "error"
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based, 0 on error)
	Total   int    `json:"total"`   // Total number of steps
}

// GraphUpdate announces a freshly assembled graph; clients refetch /api/graph
type GraphUpdate struct {
	Cluster  string `json:"cluster"`
	Vertices int    `json:"vertices"`
	Edges    int    `json:"edges"`
	Reason   string `json:"reason"`
}
