package custody

import (
	"time"

	"github.com/google/uuid"
)

// AccountKind distinguishes principal wallets from campaign vaults
type AccountKind string

const (
	AccountKindWallet AccountKind = "wallet"
	AccountKindVault  AccountKind = "vault"
)

// TransferKind records why value moved
type TransferKind string

const (
	TransferKindDeposit    TransferKind = "deposit"
	TransferKindInvestment TransferKind = "investment"
	TransferKindRelease    TransferKind = "release"
)

// Account holds a balance. Wallets are owned by a principal, vaults by the
// campaign they are bound to.
type Account struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Kind      AccountKind `json:"kind" gorm:"size:16;not null;index"`
	OwnerID   uuid.UUID   `json:"owner_id" gorm:"type:uuid;not null;index"`
	Balance   int64       `json:"balance" gorm:"not null;default:0"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName returns the table name
func (Account) TableName() string {
	return "custody_accounts"
}

// Transfer is one journal line of the custody ledger.
type Transfer struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Kind       TransferKind `json:"kind" gorm:"size:16;not null;index"`
	FromID     *uuid.UUID   `json:"from_id,omitempty" gorm:"type:uuid;index"`
	ToID       uuid.UUID    `json:"to_id" gorm:"type:uuid;not null;index"`
	Amount     int64        `json:"amount" gorm:"not null"`
	CampaignID *uuid.UUID   `json:"campaign_id,omitempty" gorm:"type:uuid;index"`
	Authority  uuid.UUID    `json:"authority" gorm:"type:uuid;not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"index"`
}

// TableName returns the table name
func (Transfer) TableName() string {
	return "custody_transfers"
}

// TransferRequest asks the ledger to move Amount from one account to another.
// Authority must own the source account.
type TransferRequest struct {
	Kind       TransferKind
	FromID     uuid.UUID
	ToID       uuid.UUID
	Amount     int64
	CampaignID *uuid.UUID
	Authority  uuid.UUID
}
