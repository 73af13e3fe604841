package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Action names the mutation being recorded
type Action string

const (
	ActionCampaignCreated   Action = "CAMPAIGN_CREATED"
	ActionCampaignCancelled Action = "CAMPAIGN_CANCELLED"
	ActionCampaignFailed    Action = "CAMPAIGN_FAILED"
	ActionCampaignCompleted Action = "CAMPAIGN_COMPLETED"
	ActionInvestmentMade    Action = "INVESTMENT_RECORDED"
	ActionVoteCast          Action = "MILESTONE_VOTE_CAST"
	ActionMilestoneApproved Action = "MILESTONE_APPROVED"
	ActionMilestoneRejected Action = "MILESTONE_REJECTED"
	ActionFundsReleased     Action = "MILESTONE_FUNDS_RELEASED"
	ActionDeposit           Action = "ACCOUNT_DEPOSIT"
)

// Entry is one row of the audit trail. It is written in the same
// transaction as the change it describes.
type Entry struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CampaignID *uuid.UUID     `json:"campaign_id,omitempty" gorm:"type:uuid;index"`
	ActorID    uuid.UUID      `json:"actor_id" gorm:"type:uuid;not null;index"`
	Action     Action         `json:"action" gorm:"size:64;not null;index"`
	Table      string         `json:"table_name" gorm:"column:table_name;size:64;not null"`
	RecordID   string         `json:"record_id" gorm:"size:64;not null"`
	OldValues  datatypes.JSON `json:"old_values,omitempty"`
	NewValues  datatypes.JSON `json:"new_values,omitempty"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index"`
}

// TableName returns the table name
func (Entry) TableName() string {
	return "audit_logs"
}

// NewEntry builds an entry, marshalling old and new values to JSON. Nil
// values are stored as SQL NULL.
func NewEntry(action Action, table, recordID string, actor uuid.UUID, campaignID *uuid.UUID, oldValues, newValues interface{}, at time.Time) (*Entry, error) {
	oldJSON, err := marshal(oldValues)
	if err != nil {
		return nil, err
	}
	newJSON, err := marshal(newValues)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:         uuid.New(),
		CampaignID: campaignID,
		ActorID:    actor,
		Action:     action,
		Table:      table,
		RecordID:   recordID,
		OldValues:  oldJSON,
		NewValues:  newJSON,
		CreatedAt:  at.UTC(),
	}, nil
}

func marshal(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
