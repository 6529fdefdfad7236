package admin

import (
	"errors"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 操作员登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 操作员登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	operator, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "invalid username or password", nil)
		case errors.Is(err, service.ErrOperatorDisabled):
			respondError(c, response.CodeForbidden, "operator disabled", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"operator": gin.H{
			"id":       operator.ID,
			"username": operator.Username,
			"role":     operator.Role,
		},
	})
}

// Profile 当前操作员信息
func (h *Handler) Profile(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	operator, err := h.OperatorRepo.GetByID(operatorID)
	if err != nil {
		respondError(c, response.CodeInternal, "operator fetch failed", err)
		return
	}
	if operator == nil {
		respondError(c, response.CodeNotFound, "operator not found", nil)
		return
	}
	response.Success(c, operator)
}
