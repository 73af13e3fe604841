package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/audit"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/auth"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Campaign), args.Error(1)
}

func (m *MockService) CancelCampaign(ctx context.Context, campaignID, caller uuid.UUID) (*Campaign, error) {
	args := m.Called(ctx, campaignID, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Campaign), args.Error(1)
}

func (m *MockService) ExpireCampaigns(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockService) Invest(ctx context.Context, req InvestRequest) (*Investment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Investment), args.Error(1)
}

func (m *MockService) VoteMilestone(ctx context.Context, req VoteRequest) (*VoteResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VoteResult), args.Error(1)
}

func (m *MockService) ReleaseMilestoneFunds(ctx context.Context, req ReleaseRequest) (*ReleaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReleaseResult), args.Error(1)
}

func (m *MockService) Deposit(ctx context.Context, accountID uuid.UUID, amount int64, operator uuid.UUID) (*custody.Transfer, error) {
	args := m.Called(ctx, accountID, amount, operator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*custody.Transfer), args.Error(1)
}

func (m *MockService) GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Campaign), args.Error(1)
}

func (m *MockService) ResolveCampaign(ctx context.Context, creator uuid.UUID, title string) (*Campaign, error) {
	args := m.Called(ctx, creator, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Campaign), args.Error(1)
}

func (m *MockService) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Campaign), args.Error(1)
}

func (m *MockService) GetInvestment(ctx context.Context, campaignID, investorID uuid.UUID) (*Investment, error) {
	args := m.Called(ctx, campaignID, investorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Investment), args.Error(1)
}

func (m *MockService) ListInvestments(ctx context.Context, campaignID uuid.UUID) ([]Investment, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).([]Investment), args.Error(1)
}

func (m *MockService) ListInvestorInvestments(ctx context.Context, investorID uuid.UUID) ([]Investment, error) {
	args := m.Called(ctx, investorID)
	return args.Get(0).([]Investment), args.Error(1)
}

func (m *MockService) GetVault(ctx context.Context, campaignID uuid.UUID) (*VaultSnapshot, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VaultSnapshot), args.Error(1)
}

func (m *MockService) GetAccount(ctx context.Context, id uuid.UUID) (*custody.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*custody.Account), args.Error(1)
}

func (m *MockService) ListTransfers(ctx context.Context, campaignID uuid.UUID) ([]custody.Transfer, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).([]custody.Transfer), args.Error(1)
}

func (m *MockService) ListAuditLogs(ctx context.Context, campaignID uuid.UUID) ([]audit.Entry, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).([]audit.Entry), args.Error(1)
}

func setupRouter(svc Service, principal auth.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		auth.WithPrincipal(c, principal)
		c.Next()
	})
	operator := func(c *gin.Context) {
		p, _ := auth.PrincipalFrom(c)
		if !p.HasRole(auth.RoleOperator) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
	NewHandler(svc, zap.NewNop()).RegisterRoutes(api, operator)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["code"]
}

func TestHandler_CreateUsesPrincipalAsCreator(t *testing.T) {
	svc := new(MockService)
	principal := auth.Principal{ID: uuid.New()}
	r := setupRouter(svc, principal)
	deadline := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	svc.On("CreateCampaign", mock.Anything, mock.MatchedBy(func(req CreateCampaignRequest) bool {
		return req.CreatorID == principal.ID && req.Title == "Solar" && req.GoalAmount == 1000 &&
			req.Deadline.Equal(deadline) && len(req.Milestones) == 1
	})).Return(&Campaign{ID: uuid.New(), Title: "Solar"}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/campaigns",
		`{"title":"Solar","goal_amount":1000,"deadline":"2030-01-01T00:00:00Z","milestones":[{"title":"m","amount":1000}]}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{ErrTitleTooLong, http.StatusBadRequest, "title_too_long"},
		{ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{ErrCampaignNotFound, http.StatusNotFound, "campaign_not_found"},
		{ErrDuplicateInvestment, http.StatusConflict, "duplicate_investment"},
		{ErrCampaignExpired, http.StatusConflict, "campaign_expired"},
		{custody.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
		{custody.ErrNotWallet, http.StatusConflict, "not_wallet"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			svc := new(MockService)
			investor := uuid.New()
			campaignID := uuid.New()
			r := setupRouter(svc, auth.Principal{ID: investor})

			svc.On("Invest", mock.Anything, InvestRequest{CampaignID: campaignID, InvestorID: investor, Amount: 50}).
				Return(nil, tt.err)

			w := doRequest(r, http.MethodPost, "/api/v1/campaigns/"+campaignID.String()+"/investments", `{"amount":50}`)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestHandler_Vote(t *testing.T) {
	svc := new(MockService)
	voter := uuid.New()
	campaignID := uuid.New()
	r := setupRouter(svc, auth.Principal{ID: voter})

	svc.On("VoteMilestone", mock.Anything, VoteRequest{CampaignID: campaignID, VoterID: voter, MilestoneIndex: 1, Approve: false}).
		Return(&VoteResult{Milestone: Milestone{Index: 1, VotesAgainst: 10}}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/campaigns/"+campaignID.String()+"/milestones/1/votes", `{"approve":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)

	w = doRequest(r, http.MethodPost, "/api/v1/campaigns/"+campaignID.String()+"/milestones/x/votes", `{"approve":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/campaigns/"+campaignID.String()+"/milestones/0/votes", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ReleasePassesCaller(t *testing.T) {
	svc := new(MockService)
	caller := uuid.New()
	campaignID := uuid.New()
	r := setupRouter(svc, auth.Principal{ID: caller})

	svc.On("ReleaseMilestoneFunds", mock.Anything, ReleaseRequest{CampaignID: campaignID, AuthorityID: caller, MilestoneIndex: 0}).
		Return(nil, ErrMilestoneNotApproved)

	w := doRequest(r, http.MethodPost, "/api/v1/campaigns/"+campaignID.String()+"/milestones/0/release", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "milestone_not_approved", errorCode(t, w))
}

func TestHandler_GetInvalidID(t *testing.T) {
	r := setupRouter(new(MockService), auth.Principal{ID: uuid.New()})

	w := doRequest(r, http.MethodGet, "/api/v1/campaigns/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Resolve(t *testing.T) {
	svc := new(MockService)
	creator := uuid.New()
	r := setupRouter(svc, auth.Principal{ID: uuid.New()})

	svc.On("ResolveCampaign", mock.Anything, creator, "Solar Roof").Return(&Campaign{ID: CampaignID(creator, "Solar Roof")}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/campaigns/resolve?creator="+creator.String()+"&title=Solar%20Roof", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), CampaignID(creator, "Solar Roof").String())
}

func TestHandler_DepositRequiresOperator(t *testing.T) {
	account := uuid.New()

	svc := new(MockService)
	r := setupRouter(svc, auth.Principal{ID: uuid.New()})
	w := doRequest(r, http.MethodPost, "/api/v1/accounts/"+account.String()+"/deposit", `{"amount":100}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	operator := auth.Principal{ID: uuid.New(), Roles: []string{auth.RoleOperator}}
	svc = new(MockService)
	r = setupRouter(svc, operator)
	svc.On("Deposit", mock.Anything, account, int64(100), operator.ID).
		Return(&custody.Transfer{ID: uuid.New(), ToID: account, Amount: 100}, nil)

	w = doRequest(r, http.MethodPost, "/api/v1/accounts/"+account.String()+"/deposit", `{"amount":100}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestHandler_ZeroAmountReachesService(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"explicit zero", `{"amount":0}`},
		{"missing amount", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			investor := uuid.New()
			campaignID := uuid.New()
			r := setupRouter(svc, auth.Principal{ID: investor})

			svc.On("Invest", mock.Anything, InvestRequest{CampaignID: campaignID, InvestorID: investor, Amount: 0}).
				Return(nil, ErrInvalidAmount)

			w := doRequest(r, http.MethodPost, "/api/v1/campaigns/"+campaignID.String()+"/investments", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_amount", errorCode(t, w))
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_DepositIntoVaultConflicts(t *testing.T) {
	operator := auth.Principal{ID: uuid.New(), Roles: []string{auth.RoleOperator}}
	vault := custody.VaultID(uuid.New())
	svc := new(MockService)
	r := setupRouter(svc, operator)
	svc.On("Deposit", mock.Anything, vault, int64(100), operator.ID).Return(nil, custody.ErrNotWallet)

	w := doRequest(r, http.MethodPost, "/api/v1/accounts/"+vault.String()+"/deposit", `{"amount":100}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_wallet", errorCode(t, w))
}
