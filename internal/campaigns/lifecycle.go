package campaigns

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

func (s *campaignService) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error) {
	now := s.clock.Now()
	if err := validateCreate(req, now); err != nil {
		return nil, err
	}

	id := CampaignID(req.CreatorID, req.Title)
	campaign := &Campaign{
		ID:          id,
		CreatorID:   req.CreatorID,
		Title:       req.Title,
		Description: req.Description,
		GoalAmount:  req.GoalAmount,
		Deadline:    req.Deadline.UTC(),
		Status:      CampaignStatusActive,
		Milestones:  make([]Milestone, 0, len(req.Milestones)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, in := range req.Milestones {
		campaign.Milestones = append(campaign.Milestones, Milestone{
			ID:          MilestoneID(id, i),
			CampaignID:  id,
			Index:       i,
			Title:       in.Title,
			Description: in.Description,
			Amount:      in.Amount,
			Status:      MilestoneStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		if _, err := tx.Ledger().OpenVault(ctx, id); err != nil {
			if errors.Is(err, custody.ErrAccountExists) {
				return ErrCampaignExists
			}
			return err
		}
		if err := tx.CreateCampaign(ctx, campaign); err != nil {
			return err
		}
		return s.record(ctx, tx, audit.ActionCampaignCreated, Campaign{}.TableName(), id.String(), req.CreatorID, &id, nil, campaign)
	})
	if err != nil {
		return nil, err
	}

	s.changed(id)
	s.logger.Info("campaign created",
		zap.String("campaign_id", id.String()),
		zap.String("creator_id", req.CreatorID.String()),
		zap.Int64("goal_amount", req.GoalAmount),
		zap.Int("milestones", len(campaign.Milestones)),
	)
	return campaign, nil
}

func (s *campaignService) CancelCampaign(ctx context.Context, campaignID, caller uuid.UUID) (*Campaign, error) {
	var out *Campaign
	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		campaign, err := tx.LockCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign.CreatorID != caller {
			return ErrUnauthorized
		}
		if campaign.Status != CampaignStatusActive {
			return ErrCampaignNotActive
		}

		old := campaign.Status
		if err := s.setCampaignStatus(campaign, CampaignStatusCancelled); err != nil {
			return err
		}
		if err := tx.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}
		out = campaign
		return s.record(ctx, tx, audit.ActionCampaignCancelled, Campaign{}.TableName(), campaignID.String(), caller, &campaignID,
			map[string]interface{}{"status": old}, map[string]interface{}{"status": campaign.Status})
	})
	if err != nil {
		return nil, err
	}

	s.changed(campaignID)
	s.logger.Info("campaign cancelled", zap.String("campaign_id", campaignID.String()))
	return out, nil
}

// ExpireCampaigns moves every active campaign that missed its goal by the
// deadline to failed. Each campaign is its own transaction; one failure does
// not stop the sweep.
func (s *campaignService) ExpireCampaigns(ctx context.Context) (int, error) {
	now := s.clock.Now()
	ids, err := s.repo.ListExpiredCampaigns(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired campaigns: %w", err)
	}

	var (
		expired int
		errs    []error
	)
	for _, id := range ids {
		campaignID := id
		err := s.repo.WithinTx(ctx, func(tx Repository) error {
			campaign, err := tx.LockCampaign(ctx, campaignID)
			if err != nil {
				return err
			}
			// Re-checked under the lock; an investment may have landed since the scan.
			if campaign.Status != CampaignStatusActive || campaign.Deadline.After(now) || campaign.RaisedAmount >= campaign.GoalAmount {
				return errSkip
			}
			if err := s.setCampaignStatus(campaign, CampaignStatusFailed); err != nil {
				return err
			}
			if err := tx.UpdateCampaign(ctx, campaign); err != nil {
				return err
			}
			return s.record(ctx, tx, audit.ActionCampaignFailed, Campaign{}.TableName(), campaignID.String(), uuid.Nil, &campaignID,
				map[string]interface{}{"status": CampaignStatusActive},
				map[string]interface{}{"status": campaign.Status, "raised_amount": campaign.RaisedAmount})
		})
		switch {
		case err == nil:
			expired++
			s.changed(campaignID)
			s.logger.Info("campaign failed", zap.String("campaign_id", campaignID.String()))
		case errors.Is(err, errSkip):
		default:
			s.logger.Error("failed to expire campaign", zap.String("campaign_id", campaignID.String()), zap.Error(err))
			errs = append(errs, fmt.Errorf("campaign %s: %w", campaignID, err))
		}
	}
	return expired, errors.Join(errs...)
}

var errSkip = errors.New("skip")
