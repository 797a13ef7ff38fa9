package handler

import (
	"context"
	"sync"
	"time"

	"aidapay/internal/gateway"
	"aidapay/internal/models"
	"aidapay/internal/repository"
)

// fakeStore is an in-memory TransactionStore mirroring the repository's
// upsert semantics: forward-only status transitions and passive field
// merge.
type fakeStore struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{txs: make(map[string]*models.Transaction)}
}

func storeKey(reference, gatewayName string) string {
	return reference + "|" + gatewayName
}

func (s *fakeStore) Create(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tx
	s.txs[storeKey(tx.Reference, tx.Gateway)] = &cp
	return nil
}

func (s *fakeStore) FindByReference(_ context.Context, reference string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.Reference == reference {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, repository.ErrTransactionNotFound
}

func (s *fakeStore) FindByReferenceAndGateway(_ context.Context, reference, gatewayName string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.txs[storeKey(reference, gatewayName)]; ok {
		cp := *tx
		return &cp, nil
	}
	return nil, repository.ErrTransactionNotFound
}

func (s *fakeStore) ApplyUpdate(_ context.Context, upd repository.TransactionUpdate) (*models.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey(upd.Reference, upd.Gateway)
	tx, ok := s.txs[key]
	if !ok {
		status := upd.Status
		if status == "" {
			status = gateway.StatusPending
		}
		tx = &models.Transaction{
			Reference:   upd.Reference,
			Gateway:     upd.Gateway,
			ExternalID:  upd.ExternalID,
			Status:      status,
			Amount:      upd.Amount,
			Currency:    upd.Currency,
			PhoneNumber: upd.PhoneNumber,
		}
		tx.SetRawResponse(upd.RawResponse)
		if status.Terminal() {
			now := time.Now()
			tx.CompletedAt = &now
		}
		s.txs[key] = tx
		cp := *tx
		return &cp, true, nil
	}

	if upd.RawResponse != nil {
		tx.SetRawResponse(upd.RawResponse)
	}
	if tx.ExternalID == "" {
		tx.ExternalID = upd.ExternalID
	}
	if tx.Amount == 0 {
		tx.Amount = upd.Amount
	}
	if tx.Currency == "" {
		tx.Currency = upd.Currency
	}
	if tx.PhoneNumber == "" {
		tx.PhoneNumber = upd.PhoneNumber
	}

	changed := false
	if repository.CanTransition(tx.Status, upd.Status) {
		if tx.Status == gateway.StatusPending {
			now := time.Now()
			tx.CompletedAt = &now
		}
		tx.Status = upd.Status
		changed = true
	}
	cp := *tx
	return &cp, changed, nil
}

func (s *fakeStore) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, tx := range s.txs {
		if tx.Status == gateway.StatusPending && tx.CreatedAt.Before(cutoff) {
			out = append(out, *tx)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
