package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/botsmith-backend/internal/http/response"
	"github.com/yungbote/botsmith-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (ch *ChatHandler) Send(c *gin.Context) {
	chatbotID, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Message string `json:"message"`
		ChatID  string `json:"chatId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	var chatID *uuid.UUID
	if req.ChatID != "" {
		if parsed, pErr := uuid.Parse(req.ChatID); pErr == nil {
			chatID = &parsed
		}
	}
	turn, err := ch.chatService.Send(c.Request.Context(), principalFrom(c), chatbotID, req.Message, chatID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chatId": turn.ChatID, "message": turn.Message})
}

func (ch *ChatHandler) History(c *gin.Context) {
	chatbotID, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	messages, err := ch.chatService.LoadHistory(c.Request.Context(), principalFrom(c), chatbotID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": messages})
}
