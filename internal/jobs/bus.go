package jobs

import (
	"sync"
	"time"

	"dockling/internal/domain"
)

// EventType classifies messages emitted during job execution.
type EventType string

const (
	EventTypeFileStarted  EventType = "file_started"
	EventTypeFileFinished EventType = "file_finished"
	EventTypeJobFinished  EventType = "job_finished"
	EventTypeProgress     EventType = "progress"
	EventTypeLog          EventType = "log"
)

// Event is a sequenced, timestamped payload consumed by observers.
// Events are immutable after publication.
type Event struct {
	Seq       int64             `json:"seq"`
	Timestamp time.Time         `json:"timestamp"`
	JobID     string            `json:"jobId"`
	Type      EventType         `json:"type"`
	Path      string            `json:"path,omitempty"`
	Index     int               `json:"index,omitempty"`
	Total     int               `json:"total,omitempty"`
	Status    domain.FileStatus `json:"status,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	OutPath   string            `json:"outPath,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
	State     domain.JobState   `json:"state,omitempty"`
	Totals    *domain.Totals    `json:"totals,omitempty"`
	Progress  *Progress         `json:"progress,omitempty"`
	Level     string            `json:"level,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// subscriber buffers events for one observer so a slow reader never
// back-pressures the publisher.
type subscriber struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Event
	closed  bool
	done    chan struct{}
	out     chan Event
}

// Bus stores recent events for incremental pull reads and fans them
// out to channel subscribers. Publish never blocks.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	subs      map[*subscriber]struct{}
}

// NewBus creates a bus with a bounded in-memory history.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		subs:      make(map[*subscriber]struct{}),
	}
}

// Publish appends one event, assigns sequence and timestamp, and
// queues it to every subscriber without blocking.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	// Enqueue while still holding the bus lock so concurrent
	// publishers cannot interleave deliveries out of Seq order.
	// enqueue only appends to the subscriber's buffer, never blocks.
	for sub := range b.subs {
		sub.enqueue(event)
	}
	b.mu.Unlock()

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Subscribe registers an observer and returns its ordered, gap-free
// event channel starting from subscription time. Events published
// earlier are not replayed.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{out: make(chan Event), done: make(chan struct{})}
	sub.cond = sync.NewCond(&sub.mu)

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.drain()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		sub.close()
	}
	return sub.out, cancel
}

// enqueue appends to the subscriber's unbounded queue. Never blocks.
func (s *subscriber) enqueue(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, event)
	s.cond.Signal()
}

// drain moves queued events onto the output channel in order.
func (s *subscriber) drain() {
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed && len(s.pending) == 0 {
			s.mu.Unlock()
			close(s.out)
			return
		}
		event := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.out <- event:
		case <-s.done:
			close(s.out)
			return
		}
	}
}

// close stops the subscriber once its queue drains or the reader
// stops receiving.
func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	s.cond.Signal()
}
