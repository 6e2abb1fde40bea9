package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/botsmith-backend/internal/http/response"
	"github.com/yungbote/botsmith-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetOrCreate(c.Request.Context(), principalFrom(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}
