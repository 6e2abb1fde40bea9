package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/botsmith-backend/internal/http/response"
	"github.com/yungbote/botsmith-backend/internal/services"
)

type ChatbotHandler struct {
	chatbotService services.ChatbotService
}

func NewChatbotHandler(chatbotService services.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{chatbotService: chatbotService}
}

func (ch *ChatbotHandler) Create(c *gin.Context) {
	var req services.ChatbotCreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	chatbot, err := ch.chatbotService.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"chatbot": chatbot})
}

func (ch *ChatbotHandler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	result, err := ch.chatbotService.GetWithPersona(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chatbot": result.Chatbot, "persona": result.Persona})
}

func (ch *ChatbotHandler) ListPublic(c *gin.Context) {
	chatbots, err := ch.chatbotService.ListPublic(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chatbots": chatbots})
}

func (ch *ChatbotHandler) ListOwned(c *gin.Context) {
	chatbots, err := ch.chatbotService.ListOwned(c.Request.Context(), principalFrom(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chatbots": chatbots})
}

func (ch *ChatbotHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req services.ChatbotUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	chatbot, err := ch.chatbotService.Update(c.Request.Context(), principalFrom(c), id, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chatbot": chatbot})
}

func (ch *ChatbotHandler) ToggleVisibility(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Visibility string `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	chatbot, err := ch.chatbotService.ToggleVisibility(c.Request.Context(), principalFrom(c), id, req.Visibility)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chatbot": chatbot})
}

func (ch *ChatbotHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := ch.chatbotService.Delete(c.Request.Context(), principalFrom(c), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{})
}

func (ch *ChatbotHandler) GenerateImage(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Prompt   string `json:"prompt"`
		ModelKey string `json:"modelKey"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	imageURL, err := ch.chatbotService.GenerateImage(c.Request.Context(), principalFrom(c), id, req.Prompt, req.ModelKey)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"imageUrl": imageURL})
}

func (ch *ChatbotHandler) SetImage(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	if err := ch.chatbotService.SetImage(c.Request.Context(), principalFrom(c), id, req.ImageURL); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{})
}

func (ch *ChatbotHandler) RemoveImage(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := ch.chatbotService.RemoveImage(c.Request.Context(), principalFrom(c), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{})
}
