package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"aidapay/internal/gateway"
	"aidapay/internal/models"
)

// TransactionUpdate is a normalized provider callback or status poll,
// ready to be applied to the store.
type TransactionUpdate struct {
	Reference   string
	Gateway     string
	ExternalID  string
	Status      gateway.Status
	Amount      float64
	Currency    string
	PhoneNumber string
	Metadata    map[string]interface{}
	RawResponse map[string]interface{}
}

// TransactionStore is the persistence surface the handlers and the
// reconciler depend on.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	FindByReferenceAndGateway(ctx context.Context, reference, gatewayName string) (*models.Transaction, error)
	// ApplyUpdate upserts a transaction keyed by (reference, gateway).
	// The returned bool reports whether a status transition was applied
	// (or a row created), which is the signal for lifecycle notifications.
	ApplyUpdate(ctx context.Context, upd TransactionUpdate) (*models.Transaction, bool, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error)
}

var ErrTransactionNotFound = errors.New("transaction not found")

// CanTransition is the forward-only state machine guard. A transaction
// leaves pending exactly once; the only post-terminal move is a refund of
// a successful payment. Out-of-order webhook deliveries that would regress
// a terminal status are rejected here.
func CanTransition(from, to gateway.Status) bool {
	if from == to || to == "" {
		return false
	}
	if from == gateway.StatusPending {
		return to.Terminal()
	}
	return from == gateway.StatusSuccess && to == gateway.StatusRefunded
}

// TransactionRepository is the GORM-backed TransactionStore.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *TransactionRepository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) FindByReferenceAndGateway(ctx context.Context, reference, gatewayName string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Where("reference = ? AND gateway = ?", reference, gatewayName).
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ApplyUpdate upserts idempotently under concurrent at-least-once
// delivery: creation races resolve through the unique index, and the
// status write is a compare-and-swap on the previously observed status so
// only one concurrent delivery applies a given transition.
func (r *TransactionRepository) ApplyUpdate(ctx context.Context, upd TransactionUpdate) (*models.Transaction, bool, error) {
	existing, err := r.FindByReferenceAndGateway(ctx, upd.Reference, upd.Gateway)
	if errors.Is(err, ErrTransactionNotFound) {
		fresh := newFromUpdate(upd)
		createErr := r.db.WithContext(ctx).Create(fresh).Error
		if createErr == nil {
			return fresh, true, nil
		}
		if !isDuplicateKey(createErr) {
			return nil, false, createErr
		}
		// Lost the creation race; fall through to the update path.
		existing, err = r.FindByReferenceAndGateway(ctx, upd.Reference, upd.Gateway)
	}
	if err != nil {
		return nil, false, err
	}

	updates := map[string]interface{}{}
	if upd.RawResponse != nil {
		existing.SetRawResponse(upd.RawResponse)
		updates["raw_response"] = existing.RawResponse
	}
	if existing.ExternalID == "" && upd.ExternalID != "" {
		updates["external_id"] = upd.ExternalID
	}
	if existing.Amount == 0 && upd.Amount > 0 {
		updates["amount"] = upd.Amount
	}
	if existing.Currency == "" && upd.Currency != "" {
		updates["currency"] = upd.Currency
	}
	if existing.PhoneNumber == "" && upd.PhoneNumber != "" {
		updates["phone_number"] = upd.PhoneNumber
	}
	if existing.Metadata == "" && len(upd.Metadata) > 0 {
		existing.SetMetadata(upd.Metadata)
		updates["metadata"] = existing.Metadata
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("reference = ? AND gateway = ?", upd.Reference, upd.Gateway).
			Updates(updates).Error; err != nil {
			return nil, false, err
		}
	}

	transitioned := false
	if CanTransition(existing.Status, upd.Status) {
		statusUpdates := map[string]interface{}{"status": upd.Status}
		if existing.Status == gateway.StatusPending {
			statusUpdates["completed_at"] = time.Now()
		}
		res := r.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("reference = ? AND gateway = ? AND status = ?", upd.Reference, upd.Gateway, existing.Status).
			Updates(statusUpdates)
		if res.Error != nil {
			return nil, false, res.Error
		}
		transitioned = res.RowsAffected > 0
	}

	final, err := r.FindByReferenceAndGateway(ctx, upd.Reference, upd.Gateway)
	if err != nil {
		return nil, false, err
	}
	return final, transitioned, nil
}

func (r *TransactionRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", gateway.StatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func newFromUpdate(upd TransactionUpdate) *models.Transaction {
	status := upd.Status
	if status == "" {
		status = gateway.StatusPending
	}
	tx := &models.Transaction{
		Reference:   upd.Reference,
		ExternalID:  upd.ExternalID,
		Gateway:     upd.Gateway,
		Status:      status,
		PhoneNumber: upd.PhoneNumber,
		Amount:      upd.Amount,
		Currency:    upd.Currency,
	}
	tx.SetMetadata(upd.Metadata)
	tx.SetRawResponse(upd.RawResponse)
	if status.Terminal() {
		now := time.Now()
		tx.CompletedAt = &now
	}
	return tx
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "Duplicate entry")
}
