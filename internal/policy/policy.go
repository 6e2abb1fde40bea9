// Package policy holds the ownership and visibility decision applied by every
// lifecycle operation before it touches the store. The decision is pure: no
// I/O, no logging, total over its inputs. Callers map the outcome to a
// transport status; the policy never does.
package policy

import "github.com/google/uuid"

type Action int

const (
	ActionRead Action = iota
	ActionWrite
)

type Decision int

const (
	Allow Decision = iota
	// DenyNotFound hides the resource entirely: missing resources and private
	// resources read by a non-owner are indistinguishable to the caller.
	DenyNotFound
	DenyForbidden
	DenyUnauthenticated
)

// Principal is the authenticated identity making a request. A nil *Principal
// means anonymous.
type Principal struct {
	ID       uuid.UUID
	Email    string
	Username string
}

// Resource is the projection of an entity the policy needs: whether it was
// found, who owns it, and (for chatbots) whether it is publicly visible.
type Resource struct {
	Exists        bool
	OwnerID       uuid.UUID
	HasVisibility bool
	Public        bool
}

// Decide resolves principal x resource x action to a single outcome.
//
// Writes require an authenticated owner. Reads on entities without a
// visibility field (personas, chats) also require the owner, and deny as
// not-found so no existence leaks. Reads on public chatbots are allowed for
// anyone, anonymous included.
func Decide(p *Principal, r Resource, a Action) Decision {
	if !r.Exists {
		return DenyNotFound
	}

	switch a {
	case ActionWrite:
		if p == nil {
			return DenyUnauthenticated
		}
		if p.ID != r.OwnerID {
			return DenyForbidden
		}
		return Allow
	case ActionRead:
		if r.HasVisibility && r.Public {
			return Allow
		}
		if p == nil || p.ID != r.OwnerID {
			return DenyNotFound
		}
		return Allow
	default:
		return DenyForbidden
	}
}

// IsOwner reports whether p is the owner of the resource. Convenience for
// call sites that only need the ownership half of the decision.
func IsOwner(p *Principal, ownerID uuid.UUID) bool {
	return p != nil && p.ID == ownerID
}
