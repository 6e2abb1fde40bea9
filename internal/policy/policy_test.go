package policy

import (
	"testing"

	"github.com/google/uuid"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	owner := &Principal{ID: uuid.New()}
	stranger := &Principal{ID: uuid.New()}

	privateBot := Resource{Exists: true, OwnerID: owner.ID, HasVisibility: true, Public: false}
	publicBot := Resource{Exists: true, OwnerID: owner.ID, HasVisibility: true, Public: true}
	ownedPersona := Resource{Exists: true, OwnerID: owner.ID}
	missing := Resource{}

	cases := []struct {
		name      string
		principal *Principal
		resource  Resource
		action    Action
		want      Decision
	}{
		{"missing resource read", owner, missing, ActionRead, DenyNotFound},
		{"missing resource write", owner, missing, ActionWrite, DenyNotFound},
		{"missing resource anonymous", nil, missing, ActionRead, DenyNotFound},

		{"owner writes own entity", owner, ownedPersona, ActionWrite, Allow},
		{"stranger writes owned entity", stranger, ownedPersona, ActionWrite, DenyForbidden},
		{"anonymous writes owned entity", nil, ownedPersona, ActionWrite, DenyUnauthenticated},
		{"stranger writes public chatbot", stranger, publicBot, ActionWrite, DenyForbidden},

		{"anyone reads public chatbot", stranger, publicBot, ActionRead, Allow},
		{"anonymous reads public chatbot", nil, publicBot, ActionRead, Allow},
		{"owner reads private chatbot", owner, privateBot, ActionRead, Allow},
		{"stranger reads private chatbot", stranger, privateBot, ActionRead, DenyNotFound},
		{"anonymous reads private chatbot", nil, privateBot, ActionRead, DenyNotFound},

		{"owner reads persona", owner, ownedPersona, ActionRead, Allow},
		{"stranger reads persona", stranger, ownedPersona, ActionRead, DenyNotFound},
		{"anonymous reads persona", nil, ownedPersona, ActionRead, DenyNotFound},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Decide(tc.principal, tc.resource, tc.action); got != tc.want {
				t.Fatalf("Decide() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsOwner(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	if !IsOwner(&Principal{ID: id}, id) {
		t.Fatal("owner not recognized")
	}
	if IsOwner(&Principal{ID: uuid.New()}, id) {
		t.Fatal("stranger recognized as owner")
	}
	if IsOwner(nil, id) {
		t.Fatal("anonymous recognized as owner")
	}
}
