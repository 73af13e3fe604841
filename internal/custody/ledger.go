package custody

import (
	"context"
	"math"

	"github.com/google/uuid"

	"peoplefi/campaign-portal/campaign-portal-backend/pkg/address"
)

// Ledger is the value-transfer primitive. Balances only change through
// Deposit and Transfer, and every change is journaled.
type Ledger interface {
	OpenVault(ctx context.Context, campaignID uuid.UUID) (*Account, error)
	Deposit(ctx context.Context, accountID uuid.UUID, amount int64, authority uuid.UUID) (*Transfer, error)
	Transfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	ListTransfers(ctx context.Context, campaignID uuid.UUID) ([]Transfer, error)
}

// VaultID is the custody account bound to a campaign.
func VaultID(campaignID uuid.UUID) uuid.UUID {
	return address.Derive("vault", campaignID[:])
}

func validateTransfer(req TransferRequest) error {
	if req.Amount <= 0 {
		return ErrInvalidAmount
	}
	if req.FromID == req.ToID {
		return ErrSelfTransfer
	}
	return nil
}

func checkedAdd(balance, amount int64) (int64, error) {
	if amount > math.MaxInt64-balance {
		return 0, ErrBalanceOverflow
	}
	return balance + amount, nil
}
