package notify

import (
	"context"
	"testing"

	"aidapay/internal/gateway"
	"aidapay/internal/models"
)

func TestNotifierDispatchesLifecycleEvents(t *testing.T) {
	n := New(nil)

	var events []string
	n.Subscribe(func(ctx context.Context, event string, tx *models.Transaction) {
		events = append(events, event)
	})

	for _, status := range []gateway.Status{
		gateway.StatusPending,
		gateway.StatusSuccess,
		gateway.StatusFailed,
	} {
		n.Dispatch(context.Background(), &models.Transaction{Reference: "T-1", Status: status})
	}

	want := []string{EventPaymentPending, EventPaymentSuccessful, EventPaymentFailed}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestNotifierIgnoresNonEventStatuses(t *testing.T) {
	n := New(nil)

	called := 0
	n.Subscribe(func(ctx context.Context, event string, tx *models.Transaction) {
		called++
	})

	n.Dispatch(context.Background(), &models.Transaction{Status: gateway.StatusCancelled})
	n.Dispatch(context.Background(), &models.Transaction{Status: gateway.StatusRefunded})

	if called != 0 {
		t.Errorf("handler called %d times for non-event statuses", called)
	}
}

func TestNotifierFansOutInOrder(t *testing.T) {
	n := New(nil)

	var order []int
	n.Subscribe(func(ctx context.Context, event string, tx *models.Transaction) { order = append(order, 1) })
	n.Subscribe(func(ctx context.Context, event string, tx *models.Transaction) { order = append(order, 2) })

	n.Dispatch(context.Background(), &models.Transaction{Status: gateway.StatusSuccess})
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("fanout order = %v", order)
	}
}
