package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

type gormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository returns a Postgres backed repository. db must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewGormRepository(db *gorm.DB, clock Clock) Repository {
	if clock == nil {
		clock = SystemClock{}
	}
	return &gormRepository{db: db, now: clock.Now}
}

// AutoMigrate creates every table the campaign service writes to
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Campaign{},
		&Milestone{},
		&MilestoneVote{},
		&Investment{},
		&audit.Entry{},
	); err != nil {
		return fmt.Errorf("failed to migrate campaign tables: %w", err)
	}
	return custody.AutoMigrate(db)
}

func (r *gormRepository) WithinTx(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx, now: r.now})
	})
}

func (r *gormRepository) Ledger() custody.Ledger {
	return custody.NewGormLedger(r.db, r.now)
}

func (r *gormRepository) CreateCampaign(ctx context.Context, campaign *Campaign) error {
	err := r.db.WithContext(ctx).Create(campaign).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCampaignExists
	}
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *gormRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	var campaign Campaign
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Milestones.Votes", func(db *gorm.DB) *gorm.DB {
			return db.Order("cast_at ASC")
		}).
		Where("id = ?", id).
		Take(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	return &campaign, nil
}

// LockCampaign takes the row lock that serializes every operation on the
// campaign, then loads it with its milestones.
func (r *gormRepository) LockCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	var locked Campaign
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		Take(&locked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock campaign: %w", err)
	}
	return r.GetCampaign(ctx, id)
}

func (r *gormRepository) UpdateCampaign(ctx context.Context, campaign *Campaign) error {
	campaign.UpdatedAt = r.now().UTC()
	return r.db.WithContext(ctx).
		Model(&Campaign{}).
		Where("id = ?", campaign.ID).
		Updates(map[string]interface{}{
			"raised_amount":  campaign.RaisedAmount,
			"investor_count": campaign.InvestorCount,
			"status":         campaign.Status,
			"updated_at":     campaign.UpdatedAt,
		}).Error
}

func (r *gormRepository) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	var out []Campaign
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *gormRepository) ListExpiredCampaigns(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Campaign{}).
		Where("status = ? AND deadline <= ? AND raised_amount < goal_amount", CampaignStatusActive, now).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *gormRepository) UpdateMilestone(ctx context.Context, milestone *Milestone) error {
	milestone.UpdatedAt = r.now().UTC()
	return r.db.WithContext(ctx).
		Model(&Milestone{}).
		Where("id = ?", milestone.ID).
		Updates(map[string]interface{}{
			"status":        milestone.Status,
			"votes_for":     milestone.VotesFor,
			"votes_against": milestone.VotesAgainst,
			"updated_at":    milestone.UpdatedAt,
		}).Error
}

func (r *gormRepository) CreateVote(ctx context.Context, vote *MilestoneVote) error {
	err := r.db.WithContext(ctx).Create(vote).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyVoted
	}
	return err
}

func (r *gormRepository) CreateInvestment(ctx context.Context, investment *Investment) error {
	err := r.db.WithContext(ctx).Create(investment).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateInvestment
	}
	return err
}

func (r *gormRepository) GetInvestment(ctx context.Context, campaignID, investorID uuid.UUID) (*Investment, error) {
	var inv Investment
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND investor_id = ?", campaignID, investorID).
		Take(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *gormRepository) ListInvestments(ctx context.Context, campaignID uuid.UUID) ([]Investment, error) {
	var out []Investment
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("invested_at ASC").
		Find(&out).Error
	return out, err
}

func (r *gormRepository) ListInvestorInvestments(ctx context.Context, investorID uuid.UUID) ([]Investment, error) {
	var out []Investment
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("invested_at ASC").
		Find(&out).Error
	return out, err
}

func (r *gormRepository) AppendAudit(ctx context.Context, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormRepository) ListAudit(ctx context.Context, campaignID uuid.UUID) ([]audit.Entry, error) {
	var out []audit.Entry
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
