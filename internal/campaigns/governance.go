package campaigns

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
)

// VoteMilestone tallies a weighted vote. The threshold is evaluated against
// the post-vote tally on the locked campaign, in the same transaction as the
// vote write.
func (s *campaignService) VoteMilestone(ctx context.Context, req VoteRequest) (*VoteResult, error) {
	var result *VoteResult
	var decided MilestoneStatus
	err := s.repo.WithinTx(ctx, func(tx Repository) error {
		campaign, err := tx.LockCampaign(ctx, req.CampaignID)
		if err != nil {
			return err
		}
		if s.policy.RequireActiveCampaign && campaign.Status != CampaignStatusActive {
			return ErrCampaignNotActive
		}
		milestone, err := milestoneAt(campaign, req.MilestoneIndex)
		if err != nil {
			return err
		}
		if milestone.Status != MilestoneStatusPending {
			return ErrMilestoneNotPending
		}
		investment, err := tx.GetInvestment(ctx, req.CampaignID, req.VoterID)
		if errors.Is(err, ErrInvestmentNotFound) {
			return ErrNoInvestment
		}
		if err != nil {
			return err
		}
		if milestone.HasVoted(req.VoterID) {
			return ErrAlreadyVoted
		}

		vote := MilestoneVote{
			ID:          VoteID(milestone.ID, req.VoterID),
			MilestoneID: milestone.ID,
			CampaignID:  campaign.ID,
			VoterID:     req.VoterID,
			Approve:     req.Approve,
			Weight:      investment.Amount,
			CastAt:      s.clock.Now(),
		}
		if err := tx.CreateVote(ctx, &vote); err != nil {
			return err
		}
		milestone.Votes = append(milestone.Votes, vote)

		// Weights are bounded by raised_amount, so neither tally can overflow.
		if req.Approve {
			milestone.VotesFor += vote.Weight
		} else {
			milestone.VotesAgainst += vote.Weight
		}

		half := campaign.RaisedAmount / 2
		switch {
		case milestone.VotesFor > half:
			decided = MilestoneStatusApproved
		case s.policy.RejectOnMajorityAgainst && milestone.VotesAgainst > half:
			decided = MilestoneStatusRejected
		}
		if decided != "" {
			if err := s.setMilestoneStatus(milestone, decided); err != nil {
				return err
			}
		}
		if err := tx.UpdateMilestone(ctx, milestone); err != nil {
			return err
		}

		campaignID := campaign.ID
		if err := s.record(ctx, tx, audit.ActionVoteCast, MilestoneVote{}.TableName(), vote.ID.String(), req.VoterID, &campaignID,
			nil, vote); err != nil {
			return err
		}
		if decided != "" {
			action := audit.ActionMilestoneApproved
			if decided == MilestoneStatusRejected {
				action = audit.ActionMilestoneRejected
			}
			if err := s.record(ctx, tx, action, Milestone{}.TableName(), milestone.ID.String(), req.VoterID, &campaignID,
				map[string]interface{}{"status": MilestoneStatusPending},
				map[string]interface{}{"status": decided, "votes_for": milestone.VotesFor, "votes_against": milestone.VotesAgainst}); err != nil {
				return err
			}
		}

		result = &VoteResult{Vote: vote, Milestone: *milestone}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(req.CampaignID)
	fields := []zap.Field{
		zap.String("campaign_id", req.CampaignID.String()),
		zap.Int("milestone", req.MilestoneIndex),
		zap.String("voter_id", req.VoterID.String()),
		zap.Bool("approve", req.Approve),
		zap.Int64("votes_for", result.Milestone.VotesFor),
		zap.Int64("votes_against", result.Milestone.VotesAgainst),
	}
	s.logger.Info("milestone vote cast", fields...)
	if decided != "" {
		s.logger.Info("milestone decided", append(fields, zap.String("status", string(decided)))...)
	}
	return result, nil
}
