package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/botsmith-backend/internal/http/response"
	"github.com/yungbote/botsmith-backend/internal/platform/ctxutil"
	"github.com/yungbote/botsmith-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	accessToken, refreshToken, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	expiresIn := int(ah.authService.GetAccessTTL().Seconds())
	response.RespondOK(c, gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"expiresIn":    expiresIn,
	})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	accessToken, refreshToken, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	expiresIn := int(ah.authService.GetAccessTTL().Seconds())
	response.RespondOK(c, gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"expiresIn":    expiresIn,
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	tokenString := ""
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		tokenString = rd.TokenString
	}
	if err := ah.authService.Logout(c.Request.Context(), tokenString); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{})
}
