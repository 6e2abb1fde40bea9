package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/policy"
	"github.com/yungbote/botsmith-backend/internal/realtime/bus"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/types"
)

// ChatTurn is the result of one send: the assistant's reply plus the chat id
// the caller carries as the sticky conversation token for the next turn.
type ChatTurn struct {
	ChatID  uuid.UUID `json:"chatId"`
	Message string    `json:"message"`
}

type ChatService interface {
	// Send runs a full turn: policy-checked chatbot load, deterministic system
	// prompt, provider completion, then an append-only persist of the user and
	// assistant messages.
	Send(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, userMessage string, chatID *uuid.UUID) (*ChatTurn, error)
	// LoadHistory returns the caller's transcript with the chatbot, empty (not
	// an error) when no chat exists yet.
	LoadHistory(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) ([]*types.ChatMessage, error)
}

type chatService struct {
	db          *gorm.DB
	log         *logger.Logger
	chatRepo    repos.ChatRepo
	chatbotRepo repos.ChatbotRepo
	personaRepo repos.PersonaRepo
	completer   ChatCompleter
	invalidate  bus.Bus
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	chatRepo repos.ChatRepo,
	chatbotRepo repos.ChatbotRepo,
	personaRepo repos.PersonaRepo,
	completer ChatCompleter,
	invalidate bus.Bus,
) ChatService {
	serviceLog := log.With("service", "ChatService")
	if invalidate == nil {
		invalidate = bus.NoopBus{}
	}
	return &chatService{
		db:          db,
		log:         serviceLog,
		chatRepo:    chatRepo,
		chatbotRepo: chatbotRepo,
		personaRepo: personaRepo,
		completer:   completer,
		invalidate:  invalidate,
	}
}

func (cs *chatService) Send(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, userMessage string, chatID *uuid.UUID) (*ChatTurn, error) {
	if principal == nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("authentication required"))
	}
	if strings.TrimSpace(userMessage) == "" {
		return nil, apierr.InvalidInput(fmt.Errorf("message is required"))
	}

	chatbot, err := cs.chatbotRepo.GetByID(ctx, nil, chatbotID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load chatbot: %w", err))
	}
	// Chatting follows the Read policy: anyone may talk to a public bot, only
	// the owner to a private one.
	if err := decisionErr(policy.Decide(principal, chatbotResource(chatbot), policy.ActionRead), "chatbot"); err != nil {
		return nil, err
	}

	persona, err := cs.personaRepo.GetByID(ctx, nil, chatbot.PersonaID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load persona: %w", err))
	}

	chat, err := cs.resolveChat(ctx, principal, chatbotID, chatID)
	if err != nil {
		return nil, err
	}

	var history []*types.ChatMessage
	if chat != nil {
		history, err = cs.chatRepo.ListMessages(ctx, nil, chat.ID)
		if err != nil {
			return nil, apierr.StoreUnavailable(fmt.Errorf("load history: %w", err))
		}
	}

	if cs.completer == nil {
		return nil, apierr.ProviderUnavailable(fmt.Errorf("chat completion is not configured"))
	}
	systemPrompt := BuildSystemPrompt(chatbot, persona)
	assistantMessage, err := cs.completer.CompleteChat(ctx, systemPrompt, history, userMessage)
	if err != nil {
		return nil, err
	}

	// Persist after a successful completion. Distinct timestamps keep the
	// created_at ordering of the two rows stable.
	now := time.Now()
	userRow := &types.ChatMessage{
		ID:        uuid.New(),
		Role:      types.RoleUser,
		Content:   userMessage,
		CreatedAt: now,
	}
	assistantRow := &types.ChatMessage{
		ID:        uuid.New(),
		Role:      types.RoleAssistant,
		Content:   assistantMessage,
		CreatedAt: now.Add(time.Millisecond),
	}

	txErr := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if chat == nil {
			chat = &types.Chat{
				ID:        uuid.New(),
				ChatbotID: chatbotID,
				UserID:    principal.ID,
			}
			if _, cErr := cs.chatRepo.Create(ctx, tx, chat); cErr != nil {
				return fmt.Errorf("create chat: %w", cErr)
			}
		} else if tErr := cs.chatRepo.Touch(ctx, tx, chat.ID); tErr != nil {
			return fmt.Errorf("touch chat: %w", tErr)
		}
		userRow.ChatID = chat.ID
		assistantRow.ChatID = chat.ID
		if aErr := cs.chatRepo.AppendMessages(ctx, tx, []*types.ChatMessage{userRow, assistantRow}); aErr != nil {
			return fmt.Errorf("append messages: %w", aErr)
		}
		if iErr := cs.chatbotRepo.IncrementInteractions(ctx, tx, chatbotID); iErr != nil {
			return fmt.Errorf("increment interactions: %w", iErr)
		}
		return nil
	})
	if txErr != nil {
		return nil, apierr.StoreUnavailable(txErr)
	}

	event := bus.EntityChanged{Type: "chat", ID: chat.ID.String(), Action: "updated"}
	if pErr := cs.invalidate.Publish(ctx, event); pErr != nil {
		cs.log.Warn("failed to publish invalidation", "error", pErr, "entity_id", chat.ID.String())
	}

	return &ChatTurn{ChatID: chat.ID, Message: assistantMessage}, nil
}

func (cs *chatService) LoadHistory(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID) ([]*types.ChatMessage, error) {
	if principal == nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("authentication required"))
	}
	chat, err := cs.chatRepo.GetLatest(ctx, nil, chatbotID, principal.ID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load chat: %w", err))
	}
	if chat == nil {
		return []*types.ChatMessage{}, nil
	}
	messages, err := cs.chatRepo.ListMessages(ctx, nil, chat.ID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load messages: %w", err))
	}
	return messages, nil
}

// resolveChat honors a caller-supplied chat id only when the chat belongs to
// the caller and the target chatbot; anything else falls back to the latest
// owned chat, or nil for "create one on persist".
func (cs *chatService) resolveChat(ctx context.Context, principal *policy.Principal, chatbotID uuid.UUID, chatID *uuid.UUID) (*types.Chat, error) {
	if chatID != nil && *chatID != uuid.Nil {
		chat, err := cs.chatRepo.GetByID(ctx, nil, *chatID)
		if err != nil {
			return nil, apierr.StoreUnavailable(fmt.Errorf("load chat: %w", err))
		}
		if chat != nil && chat.UserID == principal.ID && chat.ChatbotID == chatbotID {
			return chat, nil
		}
	}
	chat, err := cs.chatRepo.GetLatest(ctx, nil, chatbotID, principal.ID)
	if err != nil {
		return nil, apierr.StoreUnavailable(fmt.Errorf("load chat: %w", err))
	}
	return chat, nil
}
