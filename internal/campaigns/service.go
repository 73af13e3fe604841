package campaigns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
	"peoplefi/campaign-portal/campaign-portal-backend/pkg/workflows"
)

type Service interface {
	CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error)
	CancelCampaign(ctx context.Context, campaignID, caller uuid.UUID) (*Campaign, error)
	ExpireCampaigns(ctx context.Context) (int, error)

	Invest(ctx context.Context, req InvestRequest) (*Investment, error)
	VoteMilestone(ctx context.Context, req VoteRequest) (*VoteResult, error)
	ReleaseMilestoneFunds(ctx context.Context, req ReleaseRequest) (*ReleaseResult, error)
	Deposit(ctx context.Context, accountID uuid.UUID, amount int64, operator uuid.UUID) (*custody.Transfer, error)

	GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error)
	ResolveCampaign(ctx context.Context, creator uuid.UUID, title string) (*Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	GetInvestment(ctx context.Context, campaignID, investorID uuid.UUID) (*Investment, error)
	ListInvestments(ctx context.Context, campaignID uuid.UUID) ([]Investment, error)
	ListInvestorInvestments(ctx context.Context, investorID uuid.UUID) ([]Investment, error)
	GetVault(ctx context.Context, campaignID uuid.UUID) (*VaultSnapshot, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*custody.Account, error)
	ListTransfers(ctx context.Context, campaignID uuid.UUID) ([]custody.Transfer, error)
	ListAuditLogs(ctx context.Context, campaignID uuid.UUID) ([]audit.Entry, error)
}

type MilestoneInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type CreateCampaignRequest struct {
	CreatorID   uuid.UUID        `json:"-"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	GoalAmount  int64            `json:"goal_amount"`
	Deadline    time.Time        `json:"deadline"`
	Milestones  []MilestoneInput `json:"milestones"`
}

type InvestRequest struct {
	CampaignID uuid.UUID
	InvestorID uuid.UUID
	Amount     int64
}

type VoteRequest struct {
	CampaignID     uuid.UUID
	VoterID        uuid.UUID
	MilestoneIndex int
	Approve        bool
}

type ReleaseRequest struct {
	CampaignID     uuid.UUID
	AuthorityID    uuid.UUID
	MilestoneIndex int
}

// VoteResult is the milestone tally right after the vote committed
type VoteResult struct {
	Vote      MilestoneVote `json:"vote"`
	Milestone Milestone     `json:"milestone"`
}

type ReleaseResult struct {
	Milestone Milestone        `json:"milestone"`
	Transfer  custody.Transfer `json:"transfer"`
	Campaign  CampaignStatus   `json:"campaign_status"`
}

// Observer is notified after a change to a campaign has committed
type Observer interface {
	CampaignChanged(campaignID uuid.UUID)
}

type campaignService struct {
	repo        Repository
	clock       Clock
	policy      Policy
	logger      *zap.Logger
	campaignSM  *workflows.StateMachine
	milestoneSM *workflows.StateMachine
	observers   []Observer
}

func NewService(repo Repository, clock Clock, policy Policy, logger *zap.Logger, observers ...Observer) Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &campaignService{
		repo:        repo,
		clock:       clock,
		policy:      policy,
		logger:      logger,
		campaignSM:  workflows.NewCampaignStateMachine(),
		milestoneSM: workflows.NewMilestoneStateMachine(),
		observers:   observers,
	}
}

func (s *campaignService) changed(campaignID uuid.UUID) {
	for _, o := range s.observers {
		o.CampaignChanged(campaignID)
	}
}

func (s *campaignService) setCampaignStatus(c *Campaign, to CampaignStatus) error {
	if !s.campaignSM.CanTransition(string(c.Status), string(to)) {
		return ErrCampaignNotActive
	}
	c.Status = to
	return nil
}

func (s *campaignService) setMilestoneStatus(m *Milestone, to MilestoneStatus) error {
	if !s.milestoneSM.CanTransition(string(m.Status), string(to)) {
		if to == MilestoneStatusReleased {
			return ErrMilestoneNotApproved
		}
		return ErrMilestoneNotPending
	}
	m.Status = to
	return nil
}

func (s *campaignService) record(ctx context.Context, tx Repository, action audit.Action, table, recordID string, actor uuid.UUID, campaignID *uuid.UUID, oldValues, newValues interface{}) error {
	entry, err := audit.NewEntry(action, table, recordID, actor, campaignID, oldValues, newValues, s.clock.Now())
	if err != nil {
		return err
	}
	return tx.AppendAudit(ctx, entry)
}

func milestoneAt(c *Campaign, index int) (*Milestone, error) {
	if index < 0 || index >= len(c.Milestones) {
		return nil, ErrInvalidMilestone
	}
	return &c.Milestones[index], nil
}
