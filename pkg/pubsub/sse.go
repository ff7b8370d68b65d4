package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/kgview/pkg/logging"
)

// ErrClosed is returned by Subscribe and Publish after Close
var ErrClosed = errors.New("publisher is closed")

const (
	subscriberBuffer = 100 // Per-subscriber channel capacity
	statusHistory    = 10  // Covers one run: every stage plus ready or error
)

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events kept for late subscribers (0 = none)
	ReplayAll  bool // Replay every buffered event rather than only the last
}

// topic holds the state of one topic; guarded by SSEPublisher.mu
type topic struct {
	config  TopicConfig
	version int
	history []Event
	subs    map[*sseSubscription]struct{}
}

func (t *topic) record(event Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.history = append(t.history, event)
	if over := len(t.history) - t.config.BufferSize; over > 0 {
		t.history = t.history[over:]
	}
}

func (t *topic) replay() []Event {
	if len(t.history) == 0 {
		return nil
	}
	if !t.config.ReplayAll {
		return []Event{t.history[len(t.history)-1]}
	}
	return append([]Event(nil), t.history...)
}

// SSEPublisher implements Publisher for Server-Sent Event streams
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a publisher with unbuffered topics
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// NewServerPublisher creates a publisher with the server topics configured:
// late status subscribers see the whole current run, graph subscribers the
// latest update.
func NewServerPublisher() *SSEPublisher {
	p := NewSSEPublisher()
	p.ConfigureTopic(TopicStatus, TopicConfig{BufferSize: statusHistory, ReplayAll: true})
	p.ConfigureTopic(TopicGraph, TopicConfig{BufferSize: 1})
	return p
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).config = config
}

// topic returns the named topic, creating it on first use; requires p.mu
func (p *SSEPublisher) topic(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// Subscribe registers a subscription and queues the topic's replay events.
// The subscription closes when ctx is done.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	t := p.topic(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	t.subs[sub] = struct{}{}

	// Queued under the lock so no later event can overtake the replay
	replay := t.replay()
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logging.Warn("replay exceeds subscriber buffer", "topic", name, "version", event.Version)
		}
	}
	p.mu.Unlock()

	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic. A subscriber whose
// channel is full misses the event.
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.topic(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}
	t.record(event)

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber too slow, dropping event", "topic", name, "version", event.Version)
		}
	}

	return nil
}

// PublishStatus publishes a PipelineStatus on TopicStatus
func (p *SSEPublisher) PublishStatus(state, message string, step, total int) {
	status := PipelineStatus{State: state, Message: message, Step: step, Total: total}
	if err := p.Publish(TopicStatus, state, status); err != nil {
		logging.Debug("status not published", "state", state, "error", err)
	}
}

// Subscribers returns the number of live subscriptions to a topic
func (p *SSEPublisher) Subscribers(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return len(t.subs)
	}
	return 0
}

// Close ends every subscription; their event channels are closed
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		clear(t.subs)
	}
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subs, sub)
	}
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

func (s *sseSubscription) Topic() string        { return s.topic }
func (s *sseSubscription) Events() <-chan Event { return s.events }

func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// WriteSSE writes one event in SSE framing: "id: {version}\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Version, payload)
	return err
}
