package watcher

import (
	"context"
	"slices"
	"time"

	"github.com/ritzau/kgview/pkg/logging"
)

// Debouncer batches rapid file system events to avoid excessive pipeline re-runs
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. A batch is flushed once no
// event arrived for quietPeriod, or maxWait after its first event.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		pending    ChangeEvent
		eventCount int
		quietTimer *time.Timer
		maxTimer   *time.Timer
		quiet      <-chan time.Time
		deadline   <-chan time.Time
	)

	flush := func(block bool) {
		if eventCount == 0 {
			return
		}
		logging.Debug("flushing accumulated events", "count", eventCount, "files", len(pending.Paths))

		pending.Timestamp = time.Now()
		if block {
			select {
			case d.output <- pending:
			case <-ctx.Done():
			}
		} else {
			select {
			case d.output <- pending:
			default:
			}
		}

		pending = ChangeEvent{}
		eventCount = 0
		quietTimer.Stop()
		maxTimer.Stop()
		quiet, deadline = nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			flush(false)
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush(true)
				close(d.output)
				return
			}

			for _, t := range event.Types {
				if !slices.Contains(pending.Types, t) {
					pending.Types = append(pending.Types, t)
				}
			}
			for _, p := range event.Paths {
				if !slices.Contains(pending.Paths, p) {
					pending.Paths = append(pending.Paths, p)
				}
			}
			eventCount++

			if quietTimer == nil {
				quietTimer = time.NewTimer(d.quietPeriod)
			} else {
				quietTimer.Reset(d.quietPeriod)
			}
			quiet = quietTimer.C

			if deadline == nil {
				if maxTimer == nil {
					maxTimer = time.NewTimer(d.maxWait)
				} else {
					maxTimer.Reset(d.maxWait)
				}
				deadline = maxTimer.C
			}

		case <-quiet:
			flush(true)

		case <-deadline:
			flush(true)
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
