package campaigns

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

// Deposit funds a wallet. It is the only way value enters the system.
func (s *campaignService) Deposit(ctx context.Context, accountID uuid.UUID, amount int64, operator uuid.UUID) (*custody.Transfer, error) {
	var transfer *custody.Transfer
	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		var err error
		transfer, err = tx.Ledger().Deposit(ctx, accountID, amount, operator)
		if err != nil {
			return err
		}
		return s.record(ctx, tx, audit.ActionDeposit, custody.Account{}.TableName(), accountID.String(), operator, nil, nil, transfer)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account funded",
		zap.String("account_id", accountID.String()),
		zap.Int64("amount", amount),
		zap.String("operator_id", operator.String()),
	)
	return transfer, nil
}

func (s *campaignService) GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

// ResolveCampaign finds a campaign by its deterministic address
func (s *campaignService) ResolveCampaign(ctx context.Context, creator uuid.UUID, title string) (*Campaign, error) {
	return s.repo.GetCampaign(ctx, CampaignID(creator, title))
}

func (s *campaignService) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	return s.repo.ListCampaigns(ctx)
}

func (s *campaignService) GetInvestment(ctx context.Context, campaignID, investorID uuid.UUID) (*Investment, error) {
	return s.repo.GetInvestment(ctx, campaignID, investorID)
}

func (s *campaignService) ListInvestments(ctx context.Context, campaignID uuid.UUID) ([]Investment, error) {
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.repo.ListInvestments(ctx, campaignID)
}

func (s *campaignService) ListInvestorInvestments(ctx context.Context, investorID uuid.UUID) ([]Investment, error) {
	return s.repo.ListInvestorInvestments(ctx, investorID)
}

// GetVault reads the campaign and its vault in one transaction and reports
// whether the vault holds exactly raised minus released.
func (s *campaignService) GetVault(ctx context.Context, campaignID uuid.UUID) (*VaultSnapshot, error) {
	var snap *VaultSnapshot
	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		campaign, err := tx.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		vault, err := tx.Ledger().GetAccount(ctx, custody.VaultID(campaignID))
		if err != nil {
			return fmt.Errorf("campaign %s has no vault: %w", campaignID, err)
		}
		released := campaign.ReleasedAmount()
		snap = &VaultSnapshot{
			CampaignID:     campaignID,
			VaultID:        vault.ID,
			Balance:        vault.Balance,
			RaisedAmount:   campaign.RaisedAmount,
			ReleasedAmount: released,
			Consistent:     vault.Balance == campaign.RaisedAmount-released,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !snap.Consistent {
		s.logger.Error("vault balance drifted from campaign totals",
			zap.String("campaign_id", campaignID.String()),
			zap.Int64("balance", snap.Balance),
			zap.Int64("raised_amount", snap.RaisedAmount),
			zap.Int64("released_amount", snap.ReleasedAmount),
		)
	}
	return snap, nil
}

func (s *campaignService) GetAccount(ctx context.Context, id uuid.UUID) (*custody.Account, error) {
	var acc *custody.Account
	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		var err error
		acc, err = tx.Ledger().GetAccount(ctx, id)
		return err
	})
	return acc, err
}

func (s *campaignService) ListTransfers(ctx context.Context, campaignID uuid.UUID) ([]custody.Transfer, error) {
	var out []custody.Transfer
	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		if _, err := tx.GetCampaign(ctx, campaignID); err != nil {
			return err
		}
		var err error
		out, err = tx.Ledger().ListTransfers(ctx, campaignID)
		return err
	})
	return out, err
}

func (s *campaignService) ListAuditLogs(ctx context.Context, campaignID uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.repo.ListAudit(ctx, campaignID)
}
