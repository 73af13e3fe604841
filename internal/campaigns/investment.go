package campaigns

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

// Invest records an investor's single contribution and moves the funds into
// the campaign vault. The transfer and the ledger update commit together.
func (s *campaignService) Invest(ctx context.Context, req InvestRequest) (*Investment, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var investment *Investment
	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		campaign, err := tx.LockCampaign(ctx, req.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Status != CampaignStatusActive {
			return ErrCampaignNotActive
		}
		now := s.clock.Now()
		if !now.Before(campaign.Deadline) {
			return ErrCampaignExpired
		}

		_, err = tx.GetInvestment(ctx, req.CampaignID, req.InvestorID)
		if err == nil {
			return ErrDuplicateInvestment
		}
		if !errors.Is(err, ErrInvestmentNotFound) {
			return err
		}

		raised, err := addAmount(campaign.RaisedAmount, req.Amount)
		if err != nil {
			return err
		}

		campaignID := campaign.ID
		if _, err := tx.Ledger().Transfer(ctx, custody.TransferRequest{
			Kind:       custody.TransferKindInvestment,
			FromID:     req.InvestorID,
			ToID:       custody.VaultID(campaignID),
			Amount:     req.Amount,
			CampaignID: &campaignID,
			Authority:  req.InvestorID,
		}); err != nil {
			return err
		}

		investment = &Investment{
			ID:         InvestmentID(campaignID, req.InvestorID),
			CampaignID: campaignID,
			InvestorID: req.InvestorID,
			Amount:     req.Amount,
			InvestedAt: now,
		}
		if err := tx.CreateInvestment(ctx, investment); err != nil {
			return err
		}

		campaign.RaisedAmount = raised
		campaign.InvestorCount++
		if err := tx.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}
		return s.record(ctx, tx, audit.ActionInvestmentMade, Investment{}.TableName(), investment.ID.String(), req.InvestorID, &campaignID,
			nil, investment)
	})
	if err != nil {
		return nil, err
	}

	s.changed(req.CampaignID)
	s.logger.Info("investment recorded",
		zap.String("campaign_id", req.CampaignID.String()),
		zap.String("investor_id", req.InvestorID.String()),
		zap.Int64("amount", req.Amount),
	)
	return investment, nil
}
