package campaigns

import (
	"math"
	"time"
	"unicode/utf8"
)

func validateCreate(req CreateCampaignRequest, now time.Time) error {
	if utf8.RuneCountInString(req.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if utf8.RuneCountInString(req.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if req.GoalAmount <= 0 {
		return ErrInvalidAmount
	}
	if !req.Deadline.After(now) {
		return ErrInvalidDeadline
	}
	if len(req.Milestones) > MaxMilestones {
		return ErrTooManyMilestones
	}
	for _, m := range req.Milestones {
		if utf8.RuneCountInString(m.Title) > MaxMilestoneTitleLength {
			return ErrTitleTooLong
		}
		if utf8.RuneCountInString(m.Description) > MaxMilestoneDescriptionLength {
			return ErrDescriptionTooLong
		}
		if m.Amount <= 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

func addAmount(total, amount int64) (int64, error) {
	if amount > math.MaxInt64-total {
		return 0, ErrAmountOverflow
	}
	return total + amount, nil
}
