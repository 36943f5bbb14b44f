package jobs

import (
	"sync"
	"testing"
	"time"
)

// TestBusSince verifies incremental event reads by sequence.
func TestBusSince(t *testing.T) {
	bus := NewBus(3)
	bus.Publish(Event{Type: EventTypeLog, Message: "1"})
	bus.Publish(Event{Type: EventTypeLog, Message: "2"})
	bus.Publish(Event{Type: EventTypeLog, Message: "3"})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestBusCapsHistory verifies buffer limit trimming behavior.
func TestBusCapsHistory(t *testing.T) {
	bus := NewBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "2" || events[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestBusSubscribeOrderedFromSubscription checks subscribers get a
// gap-free ordered view starting at subscription time, without replay.
func TestBusSubscribeOrderedFromSubscription(t *testing.T) {
	bus := NewBus(100)
	bus.Publish(Event{Message: "before"})

	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		bus.Publish(Event{Message: "m"})
	}

	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < 5 {
		select {
		case event := <-ch:
			got = append(got, event)
		case <-timeout:
			t.Fatalf("received %d events, want 5", len(got))
		}
	}

	for i := 1; i < len(got); i++ {
		if got[i].Seq != got[i-1].Seq+1 {
			t.Fatalf("gap between seq %d and %d", got[i-1].Seq, got[i].Seq)
		}
	}
	if got[0].Message == "before" {
		t.Fatal("event published before subscription must not be replayed")
	}
}

// TestBusPublishNeverBlocksOnSlowSubscriber checks the publisher is
// decoupled from a subscriber that drains nothing.
func TestBusPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	bus := NewBus(10)
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(Event{Message: "burst"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on an unread subscriber")
	}
}

// TestBusUnsubscribeStopsDelivery checks cancel closes the channel.
func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(10)
	ch, cancel := bus.Subscribe()
	cancel()

	bus.Publish(Event{Message: "late"})

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

// TestBusConcurrentPublishersKeepSubscriberOrder checks a subscriber
// sees strictly increasing sequence numbers under contended publishes.
func TestBusConcurrentPublishersKeepSubscriberOrder(t *testing.T) {
	bus := NewBus(1000)
	ch, cancel := bus.Subscribe()
	defer cancel()

	const perPublisher = 200
	var wg sync.WaitGroup
	for p := 0; p < 2; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				bus.Publish(Event{Type: EventTypeLog, Message: "event"})
			}
		}()
	}
	wg.Wait()

	lastSeq := int64(0)
	for i := 0; i < 2*perPublisher; i++ {
		select {
		case event := <-ch:
			if event.Seq <= lastSeq {
				t.Fatalf("sequence went backwards: %d after %d", event.Seq, lastSeq)
			}
			lastSeq = event.Seq
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d events", i)
		}
	}
}
