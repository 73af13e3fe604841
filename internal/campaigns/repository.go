package campaigns

import (
	"context"
	"time"

	"github.com/google/uuid"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

// Repository is the campaign record store. Every mutating operation runs
// inside WithinTx; the Repository and Ledger handed to fn share one
// transaction, so a failed transfer rolls back the ledger update with it.
type Repository interface {
	WithinTx(ctx context.Context, fn func(tx Repository) error) error
	Ledger() custody.Ledger

	CreateCampaign(ctx context.Context, campaign *Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error)
	LockCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *Campaign) error
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	ListExpiredCampaigns(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	UpdateMilestone(ctx context.Context, milestone *Milestone) error
	CreateVote(ctx context.Context, vote *MilestoneVote) error

	CreateInvestment(ctx context.Context, investment *Investment) error
	GetInvestment(ctx context.Context, campaignID, investorID uuid.UUID) (*Investment, error)
	ListInvestments(ctx context.Context, campaignID uuid.UUID) ([]Investment, error)
	ListInvestorInvestments(ctx context.Context, investorID uuid.UUID) ([]Investment, error)

	AppendAudit(ctx context.Context, entry *audit.Entry) error
	ListAudit(ctx context.Context, campaignID uuid.UUID) ([]audit.Entry, error)
}
