package campaigns

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/database/testutil"
)

func TestGormRepository_Lifecycle(t *testing.T) {
	db := testutil.DB(t, AutoMigrate)
	ctx := context.Background()
	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
	repo := NewGormRepository(db, clock)
	svc := NewService(repo, clock, DefaultPolicy(), zap.NewNop())

	creator, x, y, operator := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{x, y} {
		_, err := svc.Deposit(ctx, id, 1000, operator)
		require.NoError(t, err)
	}

	c, err := svc.CreateCampaign(ctx, CreateCampaignRequest{
		CreatorID:  creator,
		Title:      "Community Solar",
		GoalAmount: 1000,
		Deadline:   clock.Now().Add(1000 * time.Second),
		Milestones: []MilestoneInput{{Title: "a", Amount: 500}, {Title: "b", Amount: 500}},
	})
	require.NoError(t, err)

	_, err = svc.CreateCampaign(ctx, CreateCampaignRequest{
		CreatorID:  creator,
		Title:      "Community Solar",
		GoalAmount: 10,
		Deadline:   clock.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrCampaignExists)

	_, err = svc.Invest(ctx, InvestRequest{CampaignID: c.ID, InvestorID: x, Amount: 600})
	require.NoError(t, err)
	_, err = svc.Invest(ctx, InvestRequest{CampaignID: c.ID, InvestorID: y, Amount: 400})
	require.NoError(t, err)
	_, err = svc.Invest(ctx, InvestRequest{CampaignID: c.ID, InvestorID: x, Amount: 1})
	assert.ErrorIs(t, err, ErrDuplicateInvestment)

	res, err := svc.VoteMilestone(ctx, VoteRequest{CampaignID: c.ID, VoterID: x, MilestoneIndex: 0, Approve: true})
	require.NoError(t, err)
	assert.Equal(t, MilestoneStatusApproved, res.Milestone.Status)

	_, err = svc.ReleaseMilestoneFunds(ctx, ReleaseRequest{CampaignID: c.ID, AuthorityID: creator, MilestoneIndex: 0})
	require.NoError(t, err)
	_, err = svc.ReleaseMilestoneFunds(ctx, ReleaseRequest{CampaignID: c.ID, AuthorityID: creator, MilestoneIndex: 0})
	assert.ErrorIs(t, err, ErrMilestoneNotApproved)

	snap, err := svc.GetVault(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, snap.Consistent)
	assert.Equal(t, int64(500), snap.Balance)

	acc, err := svc.GetAccount(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, int64(500), acc.Balance)

	poor := uuid.New()
	_, err = svc.Deposit(ctx, poor, 10, operator)
	require.NoError(t, err)
	c2, err := svc.CreateCampaign(ctx, CreateCampaignRequest{
		CreatorID:  creator,
		Title:      "Second",
		GoalAmount: 100,
		Deadline:   clock.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.Invest(ctx, InvestRequest{CampaignID: c2.ID, InvestorID: poor, Amount: 50})
	assert.ErrorIs(t, err, custody.ErrInsufficientFunds)
	got, err := svc.GetCampaign(ctx, c2.ID)
	require.NoError(t, err)
	assert.Zero(t, got.RaisedAmount)
}

func TestGormRepository_ConcurrentWritesSerialize(t *testing.T) {
	db := testutil.DB(t, AutoMigrate)
	ctx := context.Background()
	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
	svc := NewService(NewGormRepository(db, clock), clock, DefaultPolicy(), zap.NewNop())

	creator, operator := uuid.New(), uuid.New()
	c, err := svc.CreateCampaign(ctx, CreateCampaignRequest{
		CreatorID:  creator,
		Title:      "Concurrent " + uuid.NewString(),
		GoalAmount: 1000,
		Deadline:   clock.Now().Add(time.Hour),
		Milestones: []MilestoneInput{{Title: "a", Amount: 100}},
	})
	require.NoError(t, err)

	const n = 8
	investors := make([]uuid.UUID, n)
	for i := range investors {
		investors[i] = uuid.New()
		_, err := svc.Deposit(ctx, investors[i], 100, operator)
		require.NoError(t, err)
	}

	errs := runConcurrently(n, func(i int) error {
		_, err := svc.Invest(ctx, InvestRequest{CampaignID: c.ID, InvestorID: investors[i], Amount: 10})
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	errs = runConcurrently(n, func(int) error {
		_, err := svc.Invest(ctx, InvestRequest{CampaignID: c.ID, InvestorID: investors[0], Amount: 10})
		return err
	})
	ok, dup := countErrors(errs, ErrDuplicateInvestment)
	assert.Zero(t, ok)
	assert.Equal(t, n, dup)

	errs = runConcurrently(n, func(int) error {
		_, err := svc.VoteMilestone(ctx, VoteRequest{CampaignID: c.ID, VoterID: investors[0], MilestoneIndex: 0, Approve: false})
		return err
	})
	ok, dup = countErrors(errs, ErrAlreadyVoted)
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)

	got, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n*10), got.RaisedAmount)
	assert.Equal(t, n, got.InvestorCount)
	assert.Equal(t, int64(10), got.Milestones[0].VotesAgainst)
	assert.Len(t, got.Milestones[0].Voters(), 1)

	investments, err := svc.ListInvestments(ctx, c.ID)
	require.NoError(t, err)
	var sum int64
	for _, inv := range investments {
		sum += inv.Amount
	}
	assert.Equal(t, got.RaisedAmount, sum)

	_, err = svc.Deposit(ctx, custody.VaultID(c.ID), 5, operator)
	assert.ErrorIs(t, err, custody.ErrNotWallet)

	snap, err := svc.GetVault(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, snap.Consistent)
	assert.Equal(t, got.RaisedAmount, snap.Balance)
}
