package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"aidapay/internal/config"
	"aidapay/internal/gateway"
	"aidapay/internal/models"
	"aidapay/internal/notify"
	"aidapay/internal/repository"
)

const reconcileBatchSize = 50

// Scheduler runs the transaction reconciler. Webhooks can be lost, so
// pending transactions that outlive the in-flight window are polled
// against their provider and settled through the same idempotent upsert
// the webhook path uses.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	registry *gateway.Registry
	store    repository.TransactionStore
	notifier *notify.Notifier
	logger   *zap.Logger
}

// New creates the reconciliation scheduler.
func New(cfg *config.Config, registry *gateway.Registry, store repository.TransactionStore, notifier *notify.Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		registry: registry,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Start registers and starts the reconcile job.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Reconcile stale pending transactions - every minute
	s.cron.AddFunc("0 * * * * *", func() {
		s.logger.Debug("Running: reconcile pending transactions")
		s.reconcilePending()
	})

	s.cron.Start()
}

// Stop stops the scheduler and returns a context that is done once
// running jobs complete.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) reconcilePending() {
	defer s.recoverFromPanic("reconcilePending")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg.Transaction.Timeout)
	stale, err := s.store.ListPendingBefore(ctx, cutoff, reconcileBatchSize)
	if err != nil {
		s.logger.Error("failed to list stale pending transactions", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}
	s.logger.Info("reconciling stale pending transactions", zap.Int("count", len(stale)))

	for i := range stale {
		tx := &stale[i]
		s.reconcileOne(ctx, tx)
	}
}

func (s *Scheduler) reconcileOne(ctx context.Context, tx *models.Transaction) {
	logger := s.logger.With(
		zap.String("reference", tx.Reference),
		zap.String("gateway", tx.Gateway),
	)

	upd := repository.TransactionUpdate{
		Reference: tx.Reference,
		Gateway:   tx.Gateway,
	}

	switch {
	case tx.ExternalID == "":
		// Provider never assigned an ID; nothing to poll, the attempt
		// expired inside our own window.
		upd.Status = gateway.StatusFailed
		upd.RawResponse = map[string]interface{}{"reconciler": "expired without provider id"}

	default:
		gw, err := s.registry.Select(tx.Gateway)
		if err != nil {
			logger.Warn("skipping transaction on unavailable gateway", zap.Error(err))
			return
		}
		result := gw.CheckStatus(ctx, tx.ExternalID)
		if !result.Success {
			// Transport or provider fault. Leave the row pending and let
			// the next run retry.
			logger.Warn("status poll failed", zap.String("message", result.Message))
			return
		}
		upd.Status = result.Status
		upd.Amount = result.Amount
		upd.Currency = result.Currency
		upd.RawResponse = result.Raw
	}

	updated, changed, err := s.store.ApplyUpdate(ctx, upd)
	if err != nil {
		logger.Error("failed to apply reconciled status", zap.Error(err))
		return
	}
	if changed {
		logger.Info("reconciled transaction", zap.String("status", string(updated.Status)))
		s.notifier.Dispatch(ctx, updated)
	}
}

func (s *Scheduler) recoverFromPanic(job string) {
	if r := recover(); r != nil {
		s.logger.Error("cron job panicked", zap.String("job", job), zap.Any("panic", r))
	}
}
