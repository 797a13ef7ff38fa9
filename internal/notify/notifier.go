package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"aidapay/internal/gateway"
	"aidapay/internal/models"
)

// Event names follow the transaction lifecycle. Only status changes into
// these three states produce events; cancellations and refunds are
// recorded in the store without fanout.
const (
	EventPaymentSuccessful = "payment.successful"
	EventPaymentFailed     = "payment.failed"
	EventPaymentPending    = "payment.pending"
)

// Handler receives a lifecycle event for a transaction.
type Handler func(ctx context.Context, event string, tx *models.Transaction)

// Notifier fans transaction lifecycle events out to subscribers. Dispatch
// is synchronous and in registration order; a handler that needs to do
// slow work should hand off internally.
type Notifier struct {
	logger *zap.Logger

	mu       sync.RWMutex
	handlers []Handler
}

func New(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger}
}

// Subscribe registers a handler for all lifecycle events.
func (n *Notifier) Subscribe(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Dispatch emits the event matching the transaction's status. Statuses
// outside the event vocabulary are ignored.
func (n *Notifier) Dispatch(ctx context.Context, tx *models.Transaction) {
	event := eventFor(tx.Status)
	if event == "" {
		return
	}

	n.logger.Info("dispatching payment event",
		zap.String("event", event),
		zap.String("reference", tx.Reference),
		zap.String("gateway", tx.Gateway),
		zap.Float64("amount", tx.Amount),
	)

	n.mu.RLock()
	handlers := make([]Handler, len(n.handlers))
	copy(handlers, n.handlers)
	n.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event, tx)
	}
}

func eventFor(status gateway.Status) string {
	switch status {
	case gateway.StatusSuccess:
		return EventPaymentSuccessful
	case gateway.StatusFailed:
		return EventPaymentFailed
	case gateway.StatusPending:
		return EventPaymentPending
	default:
		return ""
	}
}
