package custody

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormLedger returns a ledger over db. Pass a transaction handle to make
// ledger writes part of a larger unit of work.
func NewGormLedger(db *gorm.DB, now func() time.Time) Ledger {
	if now == nil {
		now = time.Now
	}
	return &gormLedger{db: db, now: now}
}

// AutoMigrate creates the custody tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{}, &Transfer{})
}

func (l *gormLedger) OpenVault(ctx context.Context, campaignID uuid.UUID) (*Account, error) {
	now := l.now().UTC()
	acc := &Account{
		ID:        VaultID(campaignID),
		Kind:      AccountKindVault,
		OwnerID:   campaignID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.db.WithContext(ctx).Create(acc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	return acc, nil
}

func (l *gormLedger) Deposit(ctx context.Context, accountID uuid.UUID, amount int64, authority uuid.UUID) (*Transfer, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	now := l.now().UTC()
	if err := l.ensureWallet(ctx, accountID, now); err != nil {
		return nil, err
	}
	var acc Account
	err := l.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		Take(&acc).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if acc.Kind != AccountKindWallet {
		return nil, ErrNotWallet
	}
	if err := l.credit(ctx, accountID, amount, now); err != nil {
		return nil, err
	}

	tr := &Transfer{
		ID:        uuid.New(),
		Kind:      TransferKindDeposit,
		ToID:      accountID,
		Amount:    amount,
		Authority: authority,
		CreatedAt: now,
	}
	if err := l.db.WithContext(ctx).Create(tr).Error; err != nil {
		return nil, fmt.Errorf("failed to journal deposit: %w", err)
	}
	return tr, nil
}

func (l *gormLedger) Transfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	if err := validateTransfer(req); err != nil {
		return nil, err
	}
	db := l.db.WithContext(ctx)
	now := l.now().UTC()

	var from Account
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", req.FromID).
		Take(&from).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock source account: %w", err)
	}
	if from.OwnerID != req.Authority {
		return nil, ErrUnauthorizedDebit
	}
	if from.Balance < req.Amount {
		return nil, ErrInsufficientFunds
	}

	if err := l.ensureWallet(ctx, req.ToID, now); err != nil {
		return nil, err
	}

	res := db.Model(&Account{}).
		Where("id = ? AND balance >= ?", req.FromID, req.Amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", req.Amount),
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to debit account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientFunds
	}
	if err := l.credit(ctx, req.ToID, req.Amount, now); err != nil {
		return nil, err
	}

	fromID := req.FromID
	tr := &Transfer{
		ID:         uuid.New(),
		Kind:       req.Kind,
		FromID:     &fromID,
		ToID:       req.ToID,
		Amount:     req.Amount,
		CampaignID: req.CampaignID,
		Authority:  req.Authority,
		CreatedAt:  now,
	}
	if err := db.Create(tr).Error; err != nil {
		return nil, fmt.Errorf("failed to journal transfer: %w", err)
	}
	return tr, nil
}

func (l *gormLedger) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	var acc Account
	err := l.db.WithContext(ctx).Where("id = ?", id).Take(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (l *gormLedger) ListTransfers(ctx context.Context, campaignID uuid.UUID) ([]Transfer, error) {
	var out []Transfer
	err := l.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (l *gormLedger) ensureWallet(ctx context.Context, id uuid.UUID, now time.Time) error {
	acc := &Account{ID: id, Kind: AccountKindWallet, OwnerID: id, CreatedAt: now, UpdatedAt: now}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(acc).Error
	if err != nil {
		return fmt.Errorf("failed to open wallet: %w", err)
	}
	return nil
}

func (l *gormLedger) credit(ctx context.Context, id uuid.UUID, amount int64, now time.Time) error {
	res := l.db.WithContext(ctx).Model(&Account{}).
		Where("id = ? AND balance <= ?", id, math.MaxInt64-amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to credit account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBalanceOverflow
	}
	return nil
}
