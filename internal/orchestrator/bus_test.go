package orchestrator

import (
	"testing"
	"time"
)

func TestBusPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(EventTaskCompleted, func(evt Event) {
		got = append(got, evt)
	})

	bus.Publish(Event{Kind: EventTaskCompleted, TaskID: "t1", Timestamp: time.Now()})
	bus.Publish(Event{Kind: EventTaskFailed, TaskID: "t2", Timestamp: time.Now()})

	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].TaskID != "t1" {
		t.Errorf("expected task t1, got %s", got[0].TaskID)
	}
}

func TestBusListenersInvokedInRegistrationOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	for i := 0; i < 5; i++ {
		n := i
		bus.Subscribe(EventTaskStarted, func(Event) {
			order = append(order, n)
		})
	}

	bus.Publish(Event{Kind: EventTaskStarted, TaskID: "t1"})

	if len(order) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(order))
	}
	for i, n := range order {
		if n != i {
			t.Fatalf("expected registration order, got %v", order)
		}
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	count := 0
	sub := bus.Subscribe(EventWorkflowCompleted, func(Event) {
		count++
	})

	bus.Publish(Event{Kind: EventWorkflowCompleted, WorkflowID: "w1"})
	bus.Unsubscribe(sub)
	bus.Publish(Event{Kind: EventWorkflowCompleted, WorkflowID: "w1"})

	if count != 1 {
		t.Errorf("expected 1 delivery after unsubscribe, got %d", count)
	}
	if n := bus.ListenerCount(EventWorkflowCompleted); n != 0 {
		t.Errorf("expected 0 listeners, got %d", n)
	}

	// Unsubscribing twice is a no-op.
	bus.Unsubscribe(sub)
}

func TestBusUnsubscribeFromWithinListener(t *testing.T) {
	bus := NewBus()

	count := 0
	var sub Subscription
	sub = bus.Subscribe(EventTaskCompleted, func(Event) {
		count++
		bus.Unsubscribe(sub)
	})

	bus.Publish(Event{Kind: EventTaskCompleted, TaskID: "t1"})
	bus.Publish(Event{Kind: EventTaskCompleted, TaskID: "t2"})

	if count != 1 {
		t.Errorf("expected 1 invocation, got %d", count)
	}
}

func TestBusPublishWithNoListeners(t *testing.T) {
	bus := NewBus()
	// Must not panic.
	bus.Publish(Event{Kind: EventWorkflowFailed, WorkflowID: "w1"})
}
