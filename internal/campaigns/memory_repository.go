package campaigns

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

// memoryState is everything one memory store holds. A transaction works on
// a clone and swaps it in on success.
type memoryState struct {
	campaigns   map[uuid.UUID]*Campaign
	investments map[uuid.UUID]Investment
	auditLog    []audit.Entry
	ledger      *custody.MemoryLedger
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		campaigns:   make(map[uuid.UUID]*Campaign, len(s.campaigns)),
		investments: make(map[uuid.UUID]Investment, len(s.investments)),
		auditLog:    append([]audit.Entry(nil), s.auditLog...),
		ledger:      s.ledger.Clone(),
	}
	for id, c := range s.campaigns {
		out.campaigns[id] = c.clone()
	}
	for id, inv := range s.investments {
		out.investments[id] = inv
	}
	return out
}

type memoryRoot struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryRepository struct {
	root *memoryRoot
	tx   *memoryState
	now  func() time.Time
}

// NewMemoryRepository returns an in-process repository. Transactions are
// serialized by a single store mutex, which gives the same one-writer
// guarantee the Postgres row lock gives per campaign.
func NewMemoryRepository(clock Clock) Repository {
	if clock == nil {
		clock = SystemClock{}
	}
	return &memoryRepository{
		root: &memoryRoot{state: &memoryState{
			campaigns:   make(map[uuid.UUID]*Campaign),
			investments: make(map[uuid.UUID]Investment),
			ledger:      custody.NewMemoryLedger(clock.Now),
		}},
		now: clock.Now,
	}
}

func (r *memoryRepository) WithinTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}

	r.root.mu.Lock()
	defer r.root.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	staged := r.root.state.clone()
	if err := fn(&memoryRepository{root: r.root, tx: staged, now: r.now}); err != nil {
		return err
	}
	r.root.state = staged
	return nil
}

// Ledger returns the staged ledger inside a transaction. Outside one it
// returns the committed ledger, which is only safe to read from.
func (r *memoryRepository) Ledger() custody.Ledger {
	if r.tx != nil {
		return r.tx.ledger
	}
	r.root.mu.Lock()
	defer r.root.mu.Unlock()
	return r.root.state.ledger
}

// view runs fn against the staged state in a transaction, or against the
// committed state under the store lock otherwise.
func (r *memoryRepository) view(fn func(st *memoryState) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.root.mu.Lock()
	defer r.root.mu.Unlock()
	return fn(r.root.state)
}

func (r *memoryRepository) CreateCampaign(ctx context.Context, campaign *Campaign) error {
	return r.view(func(st *memoryState) error {
		if _, ok := st.campaigns[campaign.ID]; ok {
			return ErrCampaignExists
		}
		for _, c := range st.campaigns {
			if c.CreatorID == campaign.CreatorID && c.Title == campaign.Title {
				return ErrCampaignExists
			}
		}
		st.campaigns[campaign.ID] = campaign.clone()
		return nil
	})
}

func (r *memoryRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	var out *Campaign
	err := r.view(func(st *memoryState) error {
		c, ok := st.campaigns[id]
		if !ok {
			return ErrCampaignNotFound
		}
		out = c.clone()
		return nil
	})
	return out, err
}

func (r *memoryRepository) LockCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	return r.GetCampaign(ctx, id)
}

func (r *memoryRepository) UpdateCampaign(ctx context.Context, campaign *Campaign) error {
	return r.view(func(st *memoryState) error {
		c, ok := st.campaigns[campaign.ID]
		if !ok {
			return ErrCampaignNotFound
		}
		campaign.UpdatedAt = r.now().UTC()
		c.RaisedAmount = campaign.RaisedAmount
		c.InvestorCount = campaign.InvestorCount
		c.Status = campaign.Status
		c.UpdatedAt = campaign.UpdatedAt
		return nil
	})
}

func (r *memoryRepository) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	var out []Campaign
	err := r.view(func(st *memoryState) error {
		for _, c := range st.campaigns {
			out = append(out, *c.clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *memoryRepository) ListExpiredCampaigns(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.view(func(st *memoryState) error {
		for id, c := range st.campaigns {
			if c.Status == CampaignStatusActive && !c.Deadline.After(now) && c.RaisedAmount < c.GoalAmount {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func (r *memoryRepository) UpdateMilestone(ctx context.Context, milestone *Milestone) error {
	return r.view(func(st *memoryState) error {
		m, err := findMilestone(st, milestone.CampaignID, milestone.ID)
		if err != nil {
			return err
		}
		milestone.UpdatedAt = r.now().UTC()
		m.Status = milestone.Status
		m.VotesFor = milestone.VotesFor
		m.VotesAgainst = milestone.VotesAgainst
		m.UpdatedAt = milestone.UpdatedAt
		return nil
	})
}

func (r *memoryRepository) CreateVote(ctx context.Context, vote *MilestoneVote) error {
	return r.view(func(st *memoryState) error {
		m, err := findMilestone(st, vote.CampaignID, vote.MilestoneID)
		if err != nil {
			return err
		}
		if m.HasVoted(vote.VoterID) {
			return ErrAlreadyVoted
		}
		m.Votes = append(m.Votes, *vote)
		return nil
	})
}

func (r *memoryRepository) CreateInvestment(ctx context.Context, investment *Investment) error {
	return r.view(func(st *memoryState) error {
		key := InvestmentID(investment.CampaignID, investment.InvestorID)
		if _, ok := st.investments[key]; ok {
			return ErrDuplicateInvestment
		}
		st.investments[key] = *investment
		return nil
	})
}

func (r *memoryRepository) GetInvestment(ctx context.Context, campaignID, investorID uuid.UUID) (*Investment, error) {
	var out *Investment
	err := r.view(func(st *memoryState) error {
		inv, ok := st.investments[InvestmentID(campaignID, investorID)]
		if !ok {
			return ErrInvestmentNotFound
		}
		out = &inv
		return nil
	})
	return out, err
}

func (r *memoryRepository) ListInvestments(ctx context.Context, campaignID uuid.UUID) ([]Investment, error) {
	return r.filterInvestments(func(inv Investment) bool { return inv.CampaignID == campaignID })
}

func (r *memoryRepository) ListInvestorInvestments(ctx context.Context, investorID uuid.UUID) ([]Investment, error) {
	return r.filterInvestments(func(inv Investment) bool { return inv.InvestorID == investorID })
}

func (r *memoryRepository) filterInvestments(keep func(Investment) bool) ([]Investment, error) {
	var out []Investment
	err := r.view(func(st *memoryState) error {
		for _, inv := range st.investments {
			if keep(inv) {
				out = append(out, inv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].InvestedAt.Before(out[j].InvestedAt) })
	return out, err
}

func (r *memoryRepository) AppendAudit(ctx context.Context, entry *audit.Entry) error {
	return r.view(func(st *memoryState) error {
		st.auditLog = append(st.auditLog, *entry)
		return nil
	})
}

func (r *memoryRepository) ListAudit(ctx context.Context, campaignID uuid.UUID) ([]audit.Entry, error) {
	var out []audit.Entry
	err := r.view(func(st *memoryState) error {
		for _, e := range st.auditLog {
			if e.CampaignID != nil && *e.CampaignID == campaignID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func findMilestone(st *memoryState, campaignID, milestoneID uuid.UUID) (*Milestone, error) {
	c, ok := st.campaigns[campaignID]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	for i := range c.Milestones {
		if c.Milestones[i].ID == milestoneID {
			return &c.Milestones[i], nil
		}
	}
	return nil, ErrInvalidMilestone
}
