package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/botsmith-backend/internal/http/response"
	"github.com/yungbote/botsmith-backend/internal/services"
)

type PersonaHandler struct {
	personaService services.PersonaService
}

func NewPersonaHandler(personaService services.PersonaService) *PersonaHandler {
	return &PersonaHandler{personaService: personaService}
}

func (ph *PersonaHandler) Create(c *gin.Context) {
	var req services.PersonaCreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	persona, err := ph.personaService.Create(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"persona": persona})
}

func (ph *PersonaHandler) List(c *gin.Context) {
	personas, err := ph.personaService.ListOwned(c.Request.Context(), principalFrom(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"personas": personas})
}

func (ph *PersonaHandler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	persona, err := ph.personaService.Get(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"persona": persona})
}

func (ph *PersonaHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req services.PersonaUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, invalidRequest(err))
		return
	}
	persona, err := ph.personaService.Update(c.Request.Context(), principalFrom(c), id, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"persona": persona})
}

func (ph *PersonaHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := ph.personaService.Delete(c.Request.Context(), principalFrom(c), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{})
}
