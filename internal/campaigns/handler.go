package campaigns

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/auth"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/custody"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes expects rg to already run auth.RequireAuth. operator guards
// the wallet funding route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, operator gin.HandlerFunc) {
	campaigns := rg.Group("/campaigns")
	{
		campaigns.POST("", h.Create)
		campaigns.GET("", h.List)
		campaigns.GET("/resolve", h.Resolve)
		campaigns.GET("/:id", h.Get)
		campaigns.POST("/:id/cancel", h.Cancel)
		campaigns.POST("/:id/investments", h.Invest)
		campaigns.GET("/:id/investments", h.ListInvestments)
		campaigns.GET("/:id/investors/:investor", h.GetInvestment)
		campaigns.POST("/:id/milestones/:index/votes", h.Vote)
		campaigns.POST("/:id/milestones/:index/release", h.Release)
		campaigns.GET("/:id/vault", h.Vault)
		campaigns.GET("/:id/transfers", h.ListTransfers)
		campaigns.GET("/:id/audit", h.ListAudit)
	}

	rg.GET("/investors/:id/investments", h.ListInvestorInvestments)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("/:id", h.GetAccount)
		accounts.POST("/:id/deposit", operator, h.Deposit)
	}
}

type investPayload struct {
	Amount int64 `json:"amount"`
}

type votePayload struct {
	Approve *bool `json:"approve" binding:"required"`
}

type depositPayload struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.CreatorID = principal.ID

	campaign, err := h.service.CreateCampaign(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (h *Handler) List(c *gin.Context) {
	out, err := h.service.ListCampaigns(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Resolve(c *gin.Context) {
	creator, err := uuid.Parse(c.Query("creator"))
	if err != nil {
		badRequest(c, "invalid creator")
		return
	}
	campaign, err := h.service.ResolveCampaign(c.Request.Context(), creator, c.Query("title"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	campaign, err := h.service.GetCampaign(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) Cancel(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	campaign, err := h.service.CancelCampaign(c.Request.Context(), id, principal.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) Invest(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var payload investPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}

	investment, err := h.service.Invest(c.Request.Context(), InvestRequest{
		CampaignID: id,
		InvestorID: principal.ID,
		Amount:     payload.Amount,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, investment)
}

func (h *Handler) ListInvestments(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	out, err := h.service.ListInvestments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetInvestment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	investor, ok := uuidParam(c, "investor")
	if !ok {
		return
	}
	inv, err := h.service.GetInvestment(c.Request.Context(), id, investor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListInvestorInvestments(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	out, err := h.service.ListInvestorInvestments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Vote(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var payload votePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.service.VoteMilestone(c.Request.Context(), VoteRequest{
		CampaignID:     id,
		VoterID:        principal.ID,
		MilestoneIndex: index,
		Approve:        *payload.Approve,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Release(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}

	result, err := h.service.ReleaseMilestoneFunds(c.Request.Context(), ReleaseRequest{
		CampaignID:     id,
		AuthorityID:    principal.ID,
		MilestoneIndex: index,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Vault(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	snap, err := h.service.GetVault(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) ListTransfers(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	out, err := h.service.ListTransfers(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListAudit(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	out, err := h.service.ListAuditLogs(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAccount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	acc, err := h.service.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *Handler) Deposit(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var payload depositPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	tr, err := h.service.Deposit(c.Request.Context(), id, payload.Amount, principal.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tr)
}

func (h *Handler) principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrMissingToken.Error(), "code": "unauthenticated"})
	}
	return p, ok
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{ErrTitleTooLong, http.StatusBadRequest, "title_too_long"},
	{ErrDescriptionTooLong, http.StatusBadRequest, "description_too_long"},
	{ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{ErrInvalidDeadline, http.StatusBadRequest, "invalid_deadline"},
	{ErrTooManyMilestones, http.StatusBadRequest, "too_many_milestones"},
	{ErrInvalidMilestone, http.StatusBadRequest, "invalid_milestone"},
	{ErrAmountOverflow, http.StatusBadRequest, "amount_overflow"},
	{custody.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{custody.ErrSelfTransfer, http.StatusBadRequest, "self_transfer"},
	{custody.ErrNotWallet, http.StatusConflict, "not_wallet"},
	{ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{custody.ErrUnauthorizedDebit, http.StatusForbidden, "unauthorized_debit"},
	{ErrCampaignNotFound, http.StatusNotFound, "campaign_not_found"},
	{ErrInvestmentNotFound, http.StatusNotFound, "investment_not_found"},
	{custody.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{ErrCampaignExists, http.StatusConflict, "campaign_exists"},
	{ErrDuplicateInvestment, http.StatusConflict, "duplicate_investment"},
	{ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{ErrCampaignNotActive, http.StatusConflict, "campaign_not_active"},
	{ErrCampaignExpired, http.StatusConflict, "campaign_expired"},
	{ErrMilestoneNotPending, http.StatusConflict, "milestone_not_pending"},
	{ErrMilestoneNotApproved, http.StatusConflict, "milestone_not_approved"},
	{ErrNoInvestment, http.StatusConflict, "no_investment"},
	{custody.ErrBalanceOverflow, http.StatusConflict, "balance_overflow"},
	{custody.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
}

func errorStatus(err error) (int, string) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_request"})
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "invalid milestone index")
		return 0, false
	}
	return index, true
}
