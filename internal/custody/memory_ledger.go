package custody

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger keeps accounts in process. Clone gives the copy-on-write
// snapshot the memory campaign store commits or discards as a unit.
type MemoryLedger struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]Account
	transfers []Transfer
	now       func() time.Time
}

// NewMemoryLedger creates an empty ledger
func NewMemoryLedger(now func() time.Time) *MemoryLedger {
	if now == nil {
		now = time.Now
	}
	return &MemoryLedger{
		accounts: make(map[uuid.UUID]Account),
		now:      now,
	}
}

// Clone returns an independent copy of the ledger state
func (l *MemoryLedger) Clone() *MemoryLedger {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make(map[uuid.UUID]Account, len(l.accounts))
	for id, acc := range l.accounts {
		accounts[id] = acc
	}
	return &MemoryLedger{
		accounts:  accounts,
		transfers: append([]Transfer(nil), l.transfers...),
		now:       l.now,
	}
}

func (l *MemoryLedger) OpenVault(ctx context.Context, campaignID uuid.UUID) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := VaultID(campaignID)
	if _, ok := l.accounts[id]; ok {
		return nil, ErrAccountExists
	}
	now := l.now().UTC()
	acc := Account{ID: id, Kind: AccountKindVault, OwnerID: campaignID, CreatedAt: now, UpdatedAt: now}
	l.accounts[id] = acc
	return &acc, nil
}

func (l *MemoryLedger) Deposit(ctx context.Context, accountID uuid.UUID, amount int64, authority uuid.UUID) (*Transfer, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.walletLocked(accountID)
	if acc.Kind != AccountKindWallet {
		return nil, ErrNotWallet
	}
	balance, err := checkedAdd(acc.Balance, amount)
	if err != nil {
		return nil, err
	}
	acc.Balance = balance
	acc.UpdatedAt = l.now().UTC()
	l.accounts[accountID] = acc

	tr := Transfer{
		ID:        uuid.New(),
		Kind:      TransferKindDeposit,
		ToID:      accountID,
		Amount:    amount,
		Authority: authority,
		CreatedAt: acc.UpdatedAt,
	}
	l.transfers = append(l.transfers, tr)
	return &tr, nil
}

func (l *MemoryLedger) Transfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	if err := validateTransfer(req); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.accounts[req.FromID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if from.OwnerID != req.Authority {
		return nil, ErrUnauthorizedDebit
	}
	if from.Balance < req.Amount {
		return nil, ErrInsufficientFunds
	}

	to := l.walletLocked(req.ToID)
	credited, err := checkedAdd(to.Balance, req.Amount)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	from.Balance -= req.Amount
	from.UpdatedAt = now
	l.accounts[from.ID] = from

	to.Balance = credited
	to.UpdatedAt = now
	l.accounts[to.ID] = to

	fromID := req.FromID
	tr := Transfer{
		ID:         uuid.New(),
		Kind:       req.Kind,
		FromID:     &fromID,
		ToID:       req.ToID,
		Amount:     req.Amount,
		CampaignID: req.CampaignID,
		Authority:  req.Authority,
		CreatedAt:  now,
	}
	l.transfers = append(l.transfers, tr)
	return &tr, nil
}

func (l *MemoryLedger) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &acc, nil
}

func (l *MemoryLedger) ListTransfers(ctx context.Context, campaignID uuid.UUID) ([]Transfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Transfer
	for _, tr := range l.transfers {
		if tr.CampaignID != nil && *tr.CampaignID == campaignID {
			out = append(out, tr)
		}
	}
	return out, nil
}

// walletLocked returns the account, materialising an empty wallet owned by
// id when none exists yet.
func (l *MemoryLedger) walletLocked(id uuid.UUID) Account {
	if acc, ok := l.accounts[id]; ok {
		return acc
	}
	now := l.now().UTC()
	return Account{ID: id, Kind: AccountKindWallet, OwnerID: id, CreatedAt: now, UpdatedAt: now}
}
