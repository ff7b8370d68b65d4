package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case event := <-sub.Events():
		return event
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
		return Event{}
	}
}

func expectNone(t *testing.T, sub Subscription) {
	t.Helper()
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStatusReplaysCurrentRun(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicStatus, TopicConfig{BufferSize: 3, ReplayAll: true})

	stages := []string{"load_nodes", "select_nodes", "load_edges", "select_edges", "load_geneset"}
	for i, stage := range stages {
		pub.PublishStatus(stage, "working", i+1, 7)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Last three stages only
	for i, want := range stages[2:] {
		event := receive(t, sub)
		if event.Version != i+3 {
			t.Errorf("Expected version %d, got %d", i+3, event.Version)
		}
		var status PipelineStatus
		if err := json.Unmarshal(event.Data, &status); err != nil {
			t.Fatalf("Decode status: %v", err)
		}
		if status.State != want || event.Type != want || status.Total != 7 {
			t.Errorf("Unexpected status %+v (type %s), want state %s", status, event.Type, want)
		}
	}
	expectNone(t, sub)
}

func TestGraphReplaysLatestOnly(t *testing.T) {
	pub := NewServerPublisher()
	defer pub.Close()

	for _, cluster := range []string{"a", "b", "c"} {
		if err := pub.Publish(TopicGraph, "updated", GraphUpdate{Cluster: cluster}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicGraph)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	event := receive(t, sub)
	var update GraphUpdate
	if err := json.Unmarshal(event.Data, &update); err != nil {
		t.Fatalf("Decode update: %v", err)
	}
	if event.Version != 3 || update.Cluster != "c" {
		t.Errorf("Expected latest update (v3, cluster c), got v%d %+v", event.Version, update)
	}
	expectNone(t, sub)
}

func TestUnbufferedTopic(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	for i := 1; i <= 3; i++ {
		if err := pub.Publish("test", "event", map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	expectNone(t, sub)

	if err := pub.Publish("test", "event", map[string]int{"num": 4}); err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}
	if event := receive(t, sub); event.Version != 4 {
		t.Errorf("Expected version 4, got %d", event.Version)
	}
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	pub := NewServerPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := pub.Subscribe(ctx, TopicStatus); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if n := pub.Subscribers(TopicStatus); n != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", n)
	}

	cancel()

	deadline := time.Now().Add(time.Second)
	for pub.Subscribers(TopicStatus) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Subscription was not removed after context cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClosedPublisher(t *testing.T) {
	pub := NewSSEPublisher()
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := pub.Publish(TopicGraph, "updated", GraphUpdate{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
	if _, err := pub.Subscribe(context.Background(), TopicGraph); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrClosed", err)
	}
	// Status publishing swallows the error
	pub.PublishStatus("ready", "done", 7, 7)
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicStatus, Type: "ready", Data: json.RawMessage(`{"state":"ready"}`), Version: 7}

	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "id: 7\ndata: {") || !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Unexpected SSE framing %q", out)
	}
	if !strings.Contains(out, `"topic":"pipeline_status"`) {
		t.Errorf("Expected topic in payload, got %q", out)
	}
}
