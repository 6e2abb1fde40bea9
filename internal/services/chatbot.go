package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/policy"
	"github.com/yungbote/botsmith-backend/internal/realtime/bus"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/types"
)

type ChatbotCreateInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"`
	PersonaID   uuid.UUID `json:"personaId"`
	ImageURL    string    `json:"imageUrl"`
}

// ChatbotUpdateInput is the patchable subset: name, description, imageUrl and
// visibility. Nil means untouched.
type ChatbotUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	Visibility  *string `json:"visibility"`
}

// ChatbotWithPersona is the detail-view payload: the bot plus the persona it
// was built from.
type ChatbotWithPersona struct {
	Chatbot *types.Chatbot `json:"chatbot"`
	Persona *types.Persona `json:"persona"`
}

// PublicChatbot decorates a listing entry with the owner's display name.
type PublicChatbot struct {
	*types.Chatbot
	OwnerUsername string `json:"ownerUsername"`
}

type ChatbotService interface {
	Create(ctx context.Context, principal *policy.Principal, input ChatbotCreateInput) (*types.Chatbot, error)
	GetWithPersona(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) (*ChatbotWithPersona, error)
	ListPublic(ctx context.Context) ([]*PublicChatbot, error)
	ListOwned(ctx context.Context, principal *policy.Principal) ([]*types.Chatbot, error)
	Update(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, input ChatbotUpdateInput) (*types.Chatbot, error)
	ToggleVisibility(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, visibility string) (*types.Chatbot, error)
	Delete(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) error
	GenerateImage(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, prompt, modelKey string) (string, error)
	SetImage(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, imageURL string) error
	RemoveImage(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) error
}

type chatbotService struct {
	db          *gorm.DB
	log         *logger.Logger
	chatbotRepo repos.ChatbotRepo
	personaRepo repos.PersonaRepo
	chatRepo    repos.ChatRepo
	userRepo    repos.UserRepo
	imageGen    ImageGenerator
	invalidate  bus.Bus
}

func NewChatbotService(
	db *gorm.DB,
	log *logger.Logger,
	chatbotRepo repos.ChatbotRepo,
	personaRepo repos.PersonaRepo,
	chatRepo repos.ChatRepo,
	userRepo repos.UserRepo,
	imageGen ImageGenerator,
	invalidate bus.Bus,
) ChatbotService {
	serviceLog := log.With("service", "ChatbotService")
	if invalidate == nil {
		invalidate = bus.NoopBus{}
	}
	return &chatbotService{
		db:          db,
		log:         serviceLog,
		chatbotRepo: chatbotRepo,
		personaRepo: personaRepo,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		imageGen:    imageGen,
		invalidate:  invalidate,
	}
}

func (cs *chatbotService) Create(ctx context.Context, principal *policy.Principal, input ChatbotCreateInput) (*types.Chatbot, error) {
	if principal == nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("authentication required"))
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apierr.InvalidInput(fmt.Errorf("chatbot name is required"))
	}
	if input.PersonaID == uuid.Nil {
		return nil, apierr.InvalidInput(fmt.Errorf("personaId is required"))
	}

	// The persona must exist and belong to the creator. Borrowing another
	// user's persona is rejected outright.
	persona, err := cs.personaRepo.GetByID(ctx, nil, input.PersonaID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load persona: %w", err))
	}
	if persona == nil {
		return nil, apierr.NotFound(fmt.Errorf("persona not found"))
	}
	if !policy.IsOwner(principal, persona.UserID) {
		return nil, apierr.Forbidden(fmt.Errorf("persona belongs to another user"))
	}

	visibility := types.VisibilityPrivate
	if input.Visibility == types.VisibilityPublic {
		visibility = types.VisibilityPublic
	}

	chatbot := &types.Chatbot{
		ID:          uuid.New(),
		UserID:      principal.ID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Visibility:  visibility,
		PersonaID:   persona.ID,
		ImageURL:    input.ImageURL,
	}
	if _, err := cs.chatbotRepo.Create(ctx, nil, chatbot); err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("create chatbot: %w", err))
	}
	cs.publish(ctx, chatbot.ID, "created")
	return chatbot, nil
}

func (cs *chatbotService) GetWithPersona(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) (*ChatbotWithPersona, error) {
	chatbot, err := cs.chatbotRepo.GetByID(ctx, nil, chatbotID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load chatbot: %w", err))
	}
	if err := decisionErr(policy.Decide(principal, chatbotResource(chatbot), policy.ActionRead), "chatbot"); err != nil {
		return nil, err
	}

	persona, err := cs.personaRepo.GetByID(ctx, nil, chatbot.PersonaID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load persona: %w", err))
	}
	return &ChatbotWithPersona{Chatbot: chatbot, Persona: persona}, nil
}

func (cs *chatbotService) ListPublic(ctx context.Context) ([]*PublicChatbot, error) {
	chatbots, err := cs.chatbotRepo.ListByVisibility(ctx, nil, types.VisibilityPublic)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("list public chatbots: %w", err))
	}

	results := make([]*PublicChatbot, 0, len(chatbots))
	for _, chatbot := range chatbots {
		// An unresolvable owner never fails the whole listing.
		ownerName := "Anonymous"
		owner, uErr := cs.userRepo.GetByID(ctx, nil, chatbot.UserID)
		if uErr != nil {
			cs.log.Warn("failed to resolve chatbot owner", "error", uErr, "chatbot_id", chatbot.ID.String())
		} else if owner != nil && owner.Username != "" {
			ownerName = owner.Username
		}
		results = append(results, &PublicChatbot{Chatbot: chatbot, OwnerUsername: ownerName})
	}
	return results, nil
}

func (cs *chatbotService) ListOwned(ctx context.Context, principal *policy.Principal) ([]*types.Chatbot, error) {
	if principal == nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("authentication required"))
	}
	chatbots, err := cs.chatbotRepo.ListByOwner(ctx, nil, principal.ID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("list chatbots: %w", err))
	}
	return chatbots, nil
}

func (cs *chatbotService) Update(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, input ChatbotUpdateInput) (*types.Chatbot, error) {
	chatbot, err := cs.loadForWrite(ctx, principal, chatbotID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apierr.InvalidInput(fmt.Errorf("chatbot name cannot be empty"))
		}
		fields["name"] = strings.TrimSpace(*input.Name)
		chatbot.Name = fields["name"].(string)
	}
	if input.Description != nil {
		fields["description"] = *input.Description
		chatbot.Description = *input.Description
	}
	if input.ImageURL != nil {
		fields["image_url"] = *input.ImageURL
		chatbot.ImageURL = *input.ImageURL
	}
	if input.Visibility != nil {
		if *input.Visibility != types.VisibilityPublic && *input.Visibility != types.VisibilityPrivate {
			return nil, apierr.InvalidInput(fmt.Errorf("visibility must be public or private"))
		}
		fields["visibility"] = *input.Visibility
		chatbot.Visibility = *input.Visibility
	}
	if len(fields) == 0 {
		return chatbot, nil
	}

	if err := cs.chatbotRepo.UpdateFields(ctx, nil, chatbotID, fields); err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("update chatbot: %w", err))
	}
	cs.publish(ctx, chatbotID, "updated")
	return chatbot, nil
}

func (cs *chatbotService) ToggleVisibility(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, visibility string) (*types.Chatbot, error) {
	if visibility != types.VisibilityPublic && visibility != types.VisibilityPrivate {
		return nil, apierr.InvalidInput(fmt.Errorf("visibility must be public or private"))
	}
	chatbot, err := cs.loadForWrite(ctx, principal, chatbotID)
	if err != nil {
		return nil, err
	}
	if chatbot.Visibility == visibility {
		return chatbot, nil
	}
	if err := cs.chatbotRepo.UpdateFields(ctx, nil, chatbotID, map[string]any{"visibility": visibility}); err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("toggle visibility: %w", err))
	}
	chatbot.Visibility = visibility
	cs.publish(ctx, chatbotID, "updated")
	return chatbot, nil
}

// Delete removes the chatbot and cascades to its chats and their messages in
// one transaction, so no orphaned transcripts survive.
func (cs *chatbotService) Delete(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) error {
	if _, err := cs.loadForWrite(ctx, principal, chatbotID); err != nil {
		return err
	}

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cs.chatRepo.DeleteMessagesByChatbotID(ctx, tx, chatbotID); err != nil {
			return fmt.Errorf("delete chat messages: %w", err)
		}
		if err := cs.chatRepo.DeleteByChatbotID(ctx, tx, chatbotID); err != nil {
			return fmt.Errorf("delete chats: %w", err)
		}
		if err := cs.chatbotRepo.Delete(ctx, tx, chatbotID); err != nil {
			return fmt.Errorf("delete chatbot: %w", err)
		}
		return nil
	})
	if err != nil {
		return apierr.StoreUnavailable(err)
	}
	cs.publish(ctx, chatbotID, "deleted")
	return nil
}

// GenerateImage asks the provider first and persists only on success, so a
// provider failure never clobbers an existing image reference.
func (cs *chatbotService) GenerateImage(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, prompt, modelKey string) (string, error) {
	if _, err := cs.loadForWrite(ctx, principal, chatbotID); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", apierr.InvalidInput(fmt.Errorf("image prompt is required"))
	}
	if cs.imageGen == nil {
		return "", apierr.ProviderUnavailable(fmt.Errorf("image generation is not configured"))
	}

	imageURL, err := cs.imageGen.GenerateImage(ctx, prompt, modelKey)
	if err != nil {
		return "", err
	}
	if err := cs.chatbotRepo.UpdateFields(ctx, nil, chatbotID, map[string]any{"image_url": imageURL}); err != nil {
		return "", apierr.StoreUnavailable(fmt.Errorf("persist image url: %w", err))
	}
	cs.publish(ctx, chatbotID, "updated")
	return imageURL, nil
}

func (cs *chatbotService) SetImage(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apierr.InvalidInput(fmt.Errorf("imageUrl is required"))
	}
	if _, err := cs.loadForWrite(ctx, principal, chatbotID); err != nil {
		return err
	}
	if err := cs.chatbotRepo.UpdateFields(ctx, nil, chatbotID, map[string]any{"image_url": imageURL}); err != nil {
		return apierr.StoreUnavailable(fmt.Errorf("set image url: %w", err))
	}
	cs.publish(ctx, chatbotID, "updated")
	return nil
}

func (cs *chatbotService) RemoveImage(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) error {
	if _, err := cs.loadForWrite(ctx, principal, chatbotID); err != nil {
		return err
	}
	if err := cs.chatbotRepo.UpdateFields(ctx, nil, chatbotID, map[string]any{"image_url": ""}); err != nil {
		return apierr.StoreUnavailable(fmt.Errorf("remove image url: %w", err))
	}
	cs.publish(ctx, chatbotID, "updated")
	return nil
}

func (cs *chatbotService) loadForWrite(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) (*types.Chatbot, error) {
	chatbot, err := cs.chatbotRepo.GetByID(ctx, nil, chatbotID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load chatbot: %w", err))
	}
	if err := decisionErr(policy.Decide(principal, chatbotResource(chatbot), policy.ActionWrite), "chatbot"); err != nil {
		return nil, err
	}
	return chatbot, nil
}

func (cs *chatbotService) publish(ctx context.Context, id uuid.UUID, action string) {
	event := bus.EntityChanged{Type: "chatbot", ID: id.String(), Action: action}
	if err := cs.invalidate.Publish(ctx, event); err != nil {
		cs.log.Warn("failed to publish invalidation", "error", err, "entity_id", id.String())
	}
}
