package reports

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ExportFormat represents the file format for an export
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// PlatformStats aggregates funding across every campaign
type PlatformStats struct {
	Campaigns          int64     `json:"campaigns" db:"campaigns"`
	ActiveCampaigns    int64     `json:"active_campaigns" db:"active_campaigns"`
	CompletedCampaigns int64     `json:"completed_campaigns" db:"completed_campaigns"`
	CancelledCampaigns int64     `json:"cancelled_campaigns" db:"cancelled_campaigns"`
	FailedCampaigns    int64     `json:"failed_campaigns" db:"failed_campaigns"`
	TotalGoal          int64     `json:"total_goal" db:"total_goal"`
	TotalRaised        int64     `json:"total_raised" db:"total_raised"`
	TotalReleased      int64     `json:"total_released" db:"total_released"`
	Investors          int64     `json:"investors" db:"investors"`
	Investments        int64     `json:"investments" db:"investments"`
	GeneratedAt        time.Time `json:"generated_at" db:"-"`
}

// CampaignFunding summarizes one campaign's funding and payout progress
type CampaignFunding struct {
	CampaignID         uuid.UUID `json:"campaign_id" db:"campaign_id"`
	Title              string    `json:"title" db:"title"`
	Status             string    `json:"status" db:"status"`
	GoalAmount         int64     `json:"goal_amount" db:"goal_amount"`
	RaisedAmount       int64     `json:"raised_amount" db:"raised_amount"`
	ReleasedAmount     int64     `json:"released_amount" db:"released_amount"`
	HeldAmount         int64     `json:"held_amount" db:"-"`
	InvestorCount      int64     `json:"investor_count" db:"investor_count"`
	MilestonesTotal    int64     `json:"milestones_total" db:"milestones_total"`
	MilestonesApproved int64     `json:"milestones_approved" db:"milestones_approved"`
	MilestonesReleased int64     `json:"milestones_released" db:"milestones_released"`
	FundedPercent      float64   `json:"funded_percent" db:"-"`
	Deadline           time.Time `json:"deadline" db:"deadline"`
}

// InvestmentRow is one line of an investment ledger export
type InvestmentRow struct {
	InvestorID uuid.UUID `db:"investor_id"`
	Amount     int64     `db:"amount"`
	InvestedAt time.Time `db:"invested_at"`
}
