package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
)

// Every response carries the same envelope: {success, message?, status?} plus
// the operation's payload keys. Failures never forward raw provider or store
// error bodies.

func RespondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func RespondCreated(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusCreated, body)
}

func RespondError(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	msg := messageFor(status, code, err)
	c.JSON(status, gin.H{
		"success": false,
		"message": msg,
		"status":  status,
	})
}

// messageFor keeps client-visible text generic for internal failures and
// passes through the service's own wording for the rest.
func messageFor(status int, code string, err error) string {
	switch {
	case status >= 500 && code == "internal_error":
		return "internal error"
	case code == "store_unavailable":
		return "storage temporarily unavailable"
	case code == "provider_unavailable":
		return "upstream provider unavailable"
	case code == "rate_limited":
		return "upstream provider rate limited"
	case err != nil:
		return err.Error()
	default:
		return code
	}
}
