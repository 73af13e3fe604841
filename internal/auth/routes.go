package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers auth routes on a group already behind RequireAuth
func RegisterRoutes(rg *gin.RouterGroup, handler *Handler, mw *Middleware) {
	authGroup := rg.Group("/auth")
	{
		authGroup.GET("/me", handler.Me)
		authGroup.POST("/tokens", mw.RequireRole(RoleOperator), handler.IssueToken)
	}
}
