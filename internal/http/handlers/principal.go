package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/platform/ctxutil"
	"github.com/yungbote/botsmith-backend/internal/policy"
)

// principalFrom resolves the authenticated caller from request context. Nil
// means anonymous; services receive the principal explicitly and never reach
// back into transport state.
func principalFrom(c *gin.Context) *policy.Principal {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return nil
	}
	return &policy.Principal{
		ID:       rd.UserID,
		Email:    rd.Email,
		Username: rd.Username,
	}
}

func invalidRequest(err error) error {
	return apierr.InvalidInput(fmt.Errorf("invalid request body: %w", err))
}

// idParam parses the :id route parameter. A malformed id maps to not-found so
// probing with garbage ids is indistinguishable from probing with unknown ones.
func idParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierr.NotFound(fmt.Errorf("not found"))
	}
	return id, nil
}
