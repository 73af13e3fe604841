package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	tokens *TokenManager
	logger *zap.Logger
}

func NewHandler(tokens *TokenManager, logger *zap.Logger) *Handler {
	return &Handler{tokens: tokens, logger: logger}
}

type IssueTokenRequest struct {
	Subject string   `json:"subject" binding:"required"`
	Roles   []string `json:"roles"`
}

// Me returns the calling principal
func (h *Handler) Me(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error(), "code": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, principal)
}

// IssueToken mints a token for another principal. Operator only.
func (h *Handler) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
		return
	}
	subject, err := uuid.Parse(req.Subject)
	if err != nil || subject == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject", "code": "invalid_request"})
		return
	}

	token, expires, err := h.tokens.Issue(subject, req.Roles...)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token", "code": "internal"})
		return
	}

	issuer, _ := PrincipalFrom(c)
	h.logger.Info("token issued",
		zap.String("subject", subject.String()),
		zap.Strings("roles", req.Roles),
		zap.String("issued_by", issuer.ID.String()),
	)
	c.JSON(http.StatusCreated, gin.H{"token": token, "expires_at": expires})
}
