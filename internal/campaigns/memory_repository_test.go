package campaigns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

func TestMemoryRepository_RollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := NewMemoryRepository(clock)
	campaign := &Campaign{ID: uuid.New(), CreatorID: uuid.New(), Title: "t", Status: CampaignStatusActive}
	boom := errors.New("boom")

	err := repo.WithinTx(ctx, func(tx Repository) error {
		require.NoError(t, tx.CreateCampaign(ctx, campaign))
		_, err := tx.Ledger().OpenVault(ctx, campaign.ID)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetCampaign(ctx, campaign.ID)
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	err = repo.WithinTx(ctx, func(tx Repository) error {
		_, err := tx.Ledger().GetAccount(ctx, custody.VaultID(campaign.ID))
		return err
	})
	assert.ErrorIs(t, err, custody.ErrAccountNotFound)
}

func TestMemoryRepository_DuplicateKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)
	c := &Campaign{
		ID:         uuid.New(),
		CreatorID:  uuid.New(),
		Title:      "t",
		Status:     CampaignStatusActive,
		Milestones: []Milestone{{ID: uuid.New(), Status: MilestoneStatusPending}},
	}
	c.Milestones[0].CampaignID = c.ID

	require.NoError(t, repo.CreateCampaign(ctx, c))
	assert.ErrorIs(t, repo.CreateCampaign(ctx, &Campaign{ID: uuid.New(), CreatorID: c.CreatorID, Title: "t"}), ErrCampaignExists)

	inv := &Investment{ID: uuid.New(), CampaignID: c.ID, InvestorID: uuid.New(), Amount: 5}
	require.NoError(t, repo.CreateInvestment(ctx, inv))
	assert.ErrorIs(t, repo.CreateInvestment(ctx, inv), ErrDuplicateInvestment)

	vote := &MilestoneVote{ID: uuid.New(), MilestoneID: c.Milestones[0].ID, CampaignID: c.ID, VoterID: inv.InvestorID, Weight: 5}
	require.NoError(t, repo.CreateVote(ctx, vote))
	assert.ErrorIs(t, repo.CreateVote(ctx, vote), ErrAlreadyVoted)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)
	c := &Campaign{ID: uuid.New(), CreatorID: uuid.New(), Title: "t", Status: CampaignStatusActive}
	require.NoError(t, repo.CreateCampaign(ctx, c))

	got, err := repo.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	got.RaisedAmount = 999

	again, err := repo.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, again.RaisedAmount)
}
