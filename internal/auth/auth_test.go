package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", "campaign-portal", time.Hour)
	require.NoError(t, err)
	return m
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := newTestManager(t)
	subject := uuid.New()

	token, expires, err := m.Issue(subject, RoleOperator)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	p, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, subject, p.ID)
	assert.True(t, p.HasRole(RoleOperator))
	assert.False(t, p.HasRole("admin"))
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.Issue(uuid.New())
	require.NoError(t, err)

	other, err := NewTokenManager("other-secret", "campaign-portal", time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := m.Issue(uuid.New())
	require.NoError(t, err)
	m.now = time.Now
	_, err = m.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", "x", time.Hour)
	assert.Error(t, err)
}

func setupRouter(t *testing.T) (*gin.Engine, *TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	mw := NewMiddleware(m, zap.NewNop())
	r := gin.New()
	api := r.Group("/api/v1", mw.RequireAuth())
	RegisterRoutes(api, NewHandler(m, zap.NewNop()), mw)
	return r, m
}

func TestRoutes_Me(t *testing.T) {
	r, m := setupRouter(t)
	subject := uuid.New()
	token, _, err := m.Issue(subject)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), subject.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_IssueTokenRequiresOperator(t *testing.T) {
	r, m := setupRouter(t)
	body := `{"subject":"` + uuid.NewString() + `","roles":["operator"]}`

	plain, _, err := m.Issue(uuid.New())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/tokens", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+plain)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	op, _, err := m.Issue(uuid.New(), RoleOperator)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/tokens", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+op)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
}
