package services

import (
	"fmt"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/policy"
	"github.com/yungbote/botsmith-backend/internal/types"
)

// decisionErr maps a policy outcome to the service error taxonomy. Allow maps
// to nil so call sites can bail with a single check.
func decisionErr(d policy.Decision, entity string) error {
	switch d {
	case policy.Allow:
		return nil
	case policy.DenyNotFound:
		return apierr.NotFound(fmt.Errorf("%s not found", entity))
	case policy.DenyForbidden:
		return apierr.Forbidden(fmt.Errorf("not the owner of this %s", entity))
	case policy.DenyUnauthenticated:
		return apierr.Unauthenticated(fmt.Errorf("authentication required"))
	default:
		return apierr.Forbidden(fmt.Errorf("access denied"))
	}
}

func chatbotResource(b *types.Chatbot) policy.Resource {
	if b == nil {
		return policy.Resource{}
	}
	return policy.Resource{
		Exists:        true,
		OwnerID:       b.UserID,
		HasVisibility: true,
		Public:        b.Visibility == types.VisibilityPublic,
	}
}

func personaResource(p *types.Persona) policy.Resource {
	if p == nil {
		return policy.Resource{}
	}
	return policy.Resource{Exists: true, OwnerID: p.UserID}
}

func chatResource(c *types.Chat) policy.Resource {
	if c == nil {
		return policy.Resource{}
	}
	return policy.Resource{Exists: true, OwnerID: c.UserID}
}
