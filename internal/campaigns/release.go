package campaigns

import (
	"context"

	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

// ReleaseMilestoneFunds pays an approved milestone out of the vault to the
// creator. The vault debit is authorized by the campaign itself, which owns
// the vault account; the caller only triggers it.
func (s *campaignService) ReleaseMilestoneFunds(ctx context.Context, req ReleaseRequest) (*ReleaseResult, error) {
	var result *ReleaseResult
	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		campaign, err := tx.LockCampaign(ctx, req.CampaignID)
		if err != nil {
			return err
		}
		if s.policy.RequireCreatorForRelease && req.AuthorityID != campaign.CreatorID {
			return ErrUnauthorized
		}
		if s.policy.RequireActiveCampaign && campaign.Status != CampaignStatusActive {
			return ErrCampaignNotActive
		}
		milestone, err := milestoneAt(campaign, req.MilestoneIndex)
		if err != nil {
			return err
		}
		if milestone.Status != MilestoneStatusApproved {
			return ErrMilestoneNotApproved
		}

		campaignID := campaign.ID
		transfer, err := tx.Ledger().Transfer(ctx, custody.TransferRequest{
			Kind:       custody.TransferKindRelease,
			FromID:     custody.VaultID(campaignID),
			ToID:       campaign.CreatorID,
			Amount:     milestone.Amount,
			CampaignID: &campaignID,
			Authority:  campaignID,
		})
		if err != nil {
			return err
		}

		if err := s.setMilestoneStatus(milestone, MilestoneStatusReleased); err != nil {
			return err
		}
		if err := tx.UpdateMilestone(ctx, milestone); err != nil {
			return err
		}
		if err := s.record(ctx, tx, audit.ActionFundsReleased, Milestone{}.TableName(), milestone.ID.String(), req.AuthorityID, &campaignID,
			map[string]interface{}{"status": MilestoneStatusApproved},
			map[string]interface{}{"status": milestone.Status, "amount": milestone.Amount, "transfer_id": transfer.ID}); err != nil {
			return err
		}

		if campaign.Status == CampaignStatusActive && campaign.AllReleased() {
			if err := s.setCampaignStatus(campaign, CampaignStatusCompleted); err != nil {
				return err
			}
			if err := tx.UpdateCampaign(ctx, campaign); err != nil {
				return err
			}
			if err := s.record(ctx, tx, audit.ActionCampaignCompleted, Campaign{}.TableName(), campaignID.String(), req.AuthorityID, &campaignID,
				map[string]interface{}{"status": CampaignStatusActive},
				map[string]interface{}{"status": campaign.Status}); err != nil {
				return err
			}
		}

		result = &ReleaseResult{Milestone: *milestone, Transfer: *transfer, Campaign: campaign.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(req.CampaignID)
	s.logger.Info("milestone funds released",
		zap.String("campaign_id", req.CampaignID.String()),
		zap.Int("milestone", req.MilestoneIndex),
		zap.Int64("amount", result.Milestone.Amount),
		zap.String("campaign_status", string(result.Campaign)),
	)
	return result, nil
}
