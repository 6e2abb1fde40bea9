package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/policy"
	"github.com/yungbote/botsmith-backend/internal/realtime/bus"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/repos/testutil"
	"github.com/yungbote/botsmith-backend/internal/types"
)

// recordingBus captures invalidation events so tests can assert on them.
type recordingBus struct {
	mu     sync.Mutex
	events []bus.EntityChanged
}

func (rb *recordingBus) Publish(ctx context.Context, event bus.EntityChanged) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.events = append(rb.events, event)
	return nil
}

func (rb *recordingBus) Close() error { return nil }

func (rb *recordingBus) count() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.events)
}

// stubCompleter returns a canned reply and records what it was asked.
type stubCompleter struct {
	reply       string
	err         error
	calls       int
	lastSystem  string
	lastUserMsg string
	lastHistLen int
}

func (sc *stubCompleter) CompleteChat(ctx context.Context, systemPrompt string, history []*types.ChatMessage, userMessage string) (string, error) {
	sc.calls++
	sc.lastSystem = systemPrompt
	sc.lastUserMsg = userMessage
	sc.lastHistLen = len(history)
	if sc.err != nil {
		return "", sc.err
	}
	return sc.reply, nil
}

type harness struct {
	db  *gorm.DB
	bus *recordingBus

	userRepo    repos.UserRepo
	personaRepo repos.PersonaRepo
	chatbotRepo repos.ChatbotRepo
	chatRepo    repos.ChatRepo

	users     UserService
	personas  PersonaService
	chatbots  ChatbotService
	completer *stubCompleter
	chats     ChatService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	rb := &recordingBus{}

	userRepo := repos.NewUserRepo(gdb, log)
	personaRepo := repos.NewPersonaRepo(gdb, log)
	chatbotRepo := repos.NewChatbotRepo(gdb, log)
	chatRepo := repos.NewChatRepo(gdb, log)

	completer := &stubCompleter{reply: "hello there"}

	return &harness{
		db:          gdb,
		bus:         rb,
		userRepo:    userRepo,
		personaRepo: personaRepo,
		chatbotRepo: chatbotRepo,
		chatRepo:    chatRepo,
		users:       NewUserService(gdb, log, userRepo),
		personas:    NewPersonaService(gdb, log, personaRepo, rb),
		chatbots:    NewChatbotService(gdb, log, chatbotRepo, personaRepo, chatRepo, userRepo, nil, rb),
		completer:   completer,
		chats:       NewChatService(gdb, log, chatRepo, chatbotRepo, personaRepo, completer, rb),
	}
}

func (h *harness) principal(t *testing.T, username string) *policy.Principal {
	t.Helper()
	p := &policy.Principal{
		ID:       uuid.New(),
		Email:    username + "@example.com",
		Username: username,
	}
	if _, err := h.users.GetOrCreate(context.Background(), p); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return p
}

func (h *harness) persona(t *testing.T, owner *policy.Principal, name string) *types.Persona {
	t.Helper()
	persona, err := h.personas.Create(context.Background(), owner, PersonaCreateInput{
		Name:      name,
		Traits:    []string{"patient"},
		Expertise: []string{"math"},
	})
	if err != nil {
		t.Fatalf("failed to create persona: %v", err)
	}
	return persona
}

func (h *harness) chatbot(t *testing.T, owner *policy.Principal, name, visibility string) *types.Chatbot {
	t.Helper()
	persona := h.persona(t, owner, name+" persona")
	chatbot, err := h.chatbots.Create(context.Background(), owner, ChatbotCreateInput{
		Name:       name,
		PersonaID:  persona.ID,
		Visibility: visibility,
	})
	if err != nil {
		t.Fatalf("failed to create chatbot: %v", err)
	}
	return chatbot
}
