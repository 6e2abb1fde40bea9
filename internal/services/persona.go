package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/policy"
	"github.com/yungbote/botsmith-backend/internal/realtime/bus"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/types"
)

type PersonaCreateInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
	Tone        string   `json:"tone"`
	Style       string   `json:"style"`
	Expertise   []string `json:"expertise"`
	ImageURL    string   `json:"imageUrl"`
}

// PersonaUpdateInput carries patch semantics: nil pointer means "leave the
// stored value alone", non-nil means "set it", including to empty.
type PersonaUpdateInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Traits      *[]string `json:"traits"`
	Tone        *string   `json:"tone"`
	Style       *string   `json:"style"`
	Expertise   *[]string `json:"expertise"`
	ImageURL    *string   `json:"imageUrl"`
}

type PersonaService interface {
	Create(ctx context.Context, principal *policy.Principal, input PersonaCreateInput) (*types.Persona, error)
	Get(ctx context.Context, principal *policy.Principal, personaID uuid.UUID) (*types.Persona, error)
	ListOwned(ctx context.Context, principal *policy.Principal) ([]*types.Persona, error)
	Update(ctx context.Context, principal *policy.Principal, personaID uuid.UUID, input PersonaUpdateInput) (*types.Persona, error)
	Delete(ctx context.Context, principal *policy.Principal, personaID uuid.UUID) error
}

type personaService struct {
	db          *gorm.DB
	log         *logger.Logger
	personaRepo repos.PersonaRepo
	invalidate  bus.Bus
}

func NewPersonaService(db *gorm.DB, log *logger.Logger, personaRepo repos.PersonaRepo, invalidate bus.Bus) PersonaService {
	serviceLog := log.With("service", "PersonaService")
	if invalidate == nil {
		invalidate = bus.NoopBus{}
	}
	return &personaService{db: db, log: serviceLog, personaRepo: personaRepo, invalidate: invalidate}
}

func (ps *personaService) Create(ctx context.Context, principal *policy.Principal, input PersonaCreateInput) (*types.Persona, error) {
	if principal == nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("authentication required"))
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apierr.InvalidInput(fmt.Errorf("persona name is required"))
	}

	persona := &types.Persona{
		ID:          uuid.New(),
		UserID:      principal.ID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Traits:      datatypes.NewJSONSlice(input.Traits),
		Tone:        input.Tone,
		Style:       input.Style,
		Expertise:   datatypes.NewJSONSlice(input.Expertise),
		ImageURL:    input.ImageURL,
	}
	if _, err := ps.personaRepo.Create(ctx, nil, persona); err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("create persona: %w", err))
	}
	ps.publish(ctx, persona.ID, "created")
	return persona, nil
}

func (ps *personaService) Get(ctx context.Context, principal *policy.Principal, personaID uuid.UUID) (*types.Persona, error) {
	persona, err := ps.personaRepo.GetByID(ctx, nil, personaID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load persona: %w", err))
	}
	if err := decisionErr(policy.Decide(principal, personaResource(persona), policy.ActionRead), "persona"); err != nil {
		return nil, err
	}
	return persona, nil
}

func (ps *personaService) ListOwned(ctx context.Context, principal *policy.Principal) ([]*types.Persona, error) {
	if principal == nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("authentication required"))
	}
	personas, err := ps.personaRepo.ListByOwner(ctx, nil, principal.ID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("list personas: %w", err))
	}
	return personas, nil
}

func (ps *personaService) Update(ctx context.Context, principal *policy.Principal, personaID uuid.UUID, input PersonaUpdateInput) (*types.Persona, error) {
	persona, err := ps.personaRepo.GetByID(ctx, nil, personaID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load persona: %w", err))
	}
	if err := decisionErr(policy.Decide(principal, personaResource(persona), policy.ActionWrite), "persona"); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apierr.InvalidInput(fmt.Errorf("persona name cannot be empty"))
		}
		fields["name"] = strings.TrimSpace(*input.Name)
		persona.Name = fields["name"].(string)
	}
	if input.Description != nil {
		fields["description"] = *input.Description
		persona.Description = *input.Description
	}
	if input.Traits != nil {
		persona.Traits = datatypes.NewJSONSlice(*input.Traits)
		fields["traits"] = persona.Traits
	}
	if input.Tone != nil {
		fields["tone"] = *input.Tone
		persona.Tone = *input.Tone
	}
	if input.Style != nil {
		fields["style"] = *input.Style
		persona.Style = *input.Style
	}
	if input.Expertise != nil {
		persona.Expertise = datatypes.NewJSONSlice(*input.Expertise)
		fields["expertise"] = persona.Expertise
	}
	if input.ImageURL != nil {
		fields["image_url"] = *input.ImageURL
		persona.ImageURL = *input.ImageURL
	}
	if len(fields) == 0 {
		return persona, nil
	}

	if err := ps.personaRepo.UpdateFields(ctx, nil, personaID, fields); err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("update persona: %w", err))
	}
	ps.publish(ctx, personaID, "updated")
	return persona, nil
}

func (ps *personaService) Delete(ctx context.Context, principal *policy.Principal, personaID uuid.UUID) error {
	persona, err := ps.personaRepo.GetByID(ctx, nil, personaID)
	if err != nil {
		return apierr.StoreUnavailable(fmt.Errorf("load persona: %w", err))
	}
	if err := decisionErr(policy.Decide(principal, personaResource(persona), policy.ActionWrite), "persona"); err != nil {
		return err
	}
	if err := ps.personaRepo.Delete(ctx, nil, personaID); err != nil {
		return apierr.StoreUnavailable(fmt.Errorf("delete persona: %w", err))
	}
	ps.publish(ctx, personaID, "deleted")
	return nil
}

func (ps *personaService) publish(ctx context.Context, id uuid.UUID, action string) {
	event := bus.EntityChanged{Type: "persona", ID: id.String(), Action: action}
	if err := ps.invalidate.Publish(ctx, event); err != nil {
		ps.log.Warn("failed to publish invalidation", "error", err, "entity_id", id.String())
	}
}
