package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/response"
)

// Signup handles account creation.
func (h *Handler) Signup(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid signup request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Accounts.Signup(ctx, &req)
	if err != nil {
		writeError(c, err, "failed to sign up")
		return
	}

	h.csrf.Issue(c)
	response.Created(c, result)
}

// Login handles user login.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Accounts.Login(ctx, &req)
	if err != nil {
		writeError(c, err, "failed to login")
		return
	}

	h.csrf.Issue(c)
	response.Success(c, result)
}

// RefreshToken handles token refresh.
func (h *Handler) RefreshToken(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid refresh token request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Accounts.Refresh(ctx, req.RefreshToken)
	if err != nil {
		l.Warn().Err(err).Msg("refresh token failed")
		writeError(c, err, "failed to refresh token")
		return
	}

	response.Success(c, result)
}

// Logout revokes every token issued to the caller.
func (h *Handler) Logout(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	h.svc.Accounts.Logout(c.Request.Context(), id)
	response.Success(c, gin.H{"message": "logged out successfully"})
}

// GetMe returns current user info.
func (h *Handler) GetMe(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.svc.Accounts.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to get user")
		return
	}
	response.Success(c, user.ToResponse())
}
