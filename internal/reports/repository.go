package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/campaigns"
)

// Repository defines the interface for report data access
type Repository interface {
	GetPlatformStats(ctx context.Context) (*PlatformStats, error)
	GetCampaignFunding(ctx context.Context, campaignID uuid.UUID) (*CampaignFunding, error)
	ListInvestmentRows(ctx context.Context, campaignID uuid.UUID) ([]InvestmentRow, error)
}

// PostgresRepository reads the campaign tables directly
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	query := `
		SELECT
			COUNT(*) AS campaigns,
			COUNT(*) FILTER (WHERE status = 'active') AS active_campaigns,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_campaigns,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled_campaigns,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed_campaigns,
			COALESCE(SUM(goal_amount), 0) AS total_goal,
			COALESCE(SUM(raised_amount), 0) AS total_raised,
			(SELECT COALESCE(SUM(amount), 0) FROM campaign_milestones WHERE status = 'released') AS total_released,
			(SELECT COUNT(DISTINCT investor_id) FROM investments) AS investors,
			(SELECT COUNT(*) FROM investments) AS investments
		FROM campaigns
	`

	var stats PlatformStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}
	return &stats, nil
}

func (r *PostgresRepository) GetCampaignFunding(ctx context.Context, campaignID uuid.UUID) (*CampaignFunding, error) {
	query := `
		SELECT
			c.id AS campaign_id, c.title, c.status, c.goal_amount, c.raised_amount,
			c.investor_count, c.deadline,
			COUNT(m.id) AS milestones_total,
			COUNT(m.id) FILTER (WHERE m.status = 'approved') AS milestones_approved,
			COUNT(m.id) FILTER (WHERE m.status = 'released') AS milestones_released,
			COALESCE(SUM(m.amount) FILTER (WHERE m.status = 'released'), 0) AS released_amount
		FROM campaigns c
		LEFT JOIN campaign_milestones m ON m.campaign_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`

	var funding CampaignFunding
	err := r.db.GetContext(ctx, &funding, query, campaignID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaigns.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign funding: %w", err)
	}
	return &funding, nil
}

func (r *PostgresRepository) ListInvestmentRows(ctx context.Context, campaignID uuid.UUID) ([]InvestmentRow, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM campaigns WHERE id = $1)`, campaignID); err != nil {
		return nil, fmt.Errorf("failed to check campaign: %w", err)
	}
	if !exists {
		return nil, campaigns.ErrCampaignNotFound
	}

	query := `
		SELECT investor_id, amount, invested_at
		FROM investments
		WHERE campaign_id = $1
		ORDER BY invested_at ASC
	`
	var rows []InvestmentRow
	if err := r.db.SelectContext(ctx, &rows, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	return rows, nil
}

// StoreRepository computes reports from a campaigns.Repository. It backs
// the memory driver, where there is no SQL to aggregate with.
type StoreRepository struct {
	store campaigns.Repository
}

func NewStoreRepository(store campaigns.Repository) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	list, err := r.store.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}

	stats := &PlatformStats{Campaigns: int64(len(list))}
	investors := make(map[uuid.UUID]struct{})
	for i := range list {
		c := &list[i]
		switch c.Status {
		case campaigns.CampaignStatusActive:
			stats.ActiveCampaigns++
		case campaigns.CampaignStatusCompleted:
			stats.CompletedCampaigns++
		case campaigns.CampaignStatusCancelled:
			stats.CancelledCampaigns++
		case campaigns.CampaignStatusFailed:
			stats.FailedCampaigns++
		}
		stats.TotalGoal += c.GoalAmount
		stats.TotalRaised += c.RaisedAmount
		stats.TotalReleased += c.ReleasedAmount()

		invs, err := r.store.ListInvestments(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		stats.Investments += int64(len(invs))
		for _, inv := range invs {
			investors[inv.InvestorID] = struct{}{}
		}
	}
	stats.Investors = int64(len(investors))
	return stats, nil
}

func (r *StoreRepository) GetCampaignFunding(ctx context.Context, campaignID uuid.UUID) (*CampaignFunding, error) {
	c, err := r.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	funding := &CampaignFunding{
		CampaignID:      c.ID,
		Title:           c.Title,
		Status:          string(c.Status),
		GoalAmount:      c.GoalAmount,
		RaisedAmount:    c.RaisedAmount,
		ReleasedAmount:  c.ReleasedAmount(),
		InvestorCount:   int64(c.InvestorCount),
		MilestonesTotal: int64(len(c.Milestones)),
		Deadline:        c.Deadline,
	}
	for _, m := range c.Milestones {
		switch m.Status {
		case campaigns.MilestoneStatusApproved:
			funding.MilestonesApproved++
		case campaigns.MilestoneStatusReleased:
			funding.MilestonesReleased++
		}
	}
	return funding, nil
}

func (r *StoreRepository) ListInvestmentRows(ctx context.Context, campaignID uuid.UUID) ([]InvestmentRow, error) {
	if _, err := r.store.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	invs, err := r.store.ListInvestments(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	rows := make([]InvestmentRow, 0, len(invs))
	for _, inv := range invs {
		rows = append(rows, InvestmentRow{InvestorID: inv.InvestorID, Amount: inv.Amount, InvestedAt: inv.InvestedAt})
	}
	return rows, nil
}
