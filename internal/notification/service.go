package notification

import (
	"sync"
	"time"
)

// Event kinds surfaced on the operations feed.
const (
	KindUpload      = "upload"
	KindRateRefresh = "rate_refresh"
	KindApproval    = "approval"
)

type Event struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Feed keeps the most recent events, oldest dropped first once the limit is
// reached. Publishers never block; readers get a snapshot copy.
type Feed struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

const DefaultFeedLimit = 200

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return &Feed{
		events: make([]Event, 0, limit),
		limit:  limit,
	}
}

func (f *Feed) Publish(kind, message string) Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev := Event{Kind: kind, Message: message, At: time.Now()}
	f.events = append(f.events, ev)
	if len(f.events) > f.limit {
		f.events = f.events[len(f.events)-f.limit:]
	}
	return ev
}

func (f *Feed) Recent() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = f.events[:0]
}
