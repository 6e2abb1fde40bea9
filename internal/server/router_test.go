package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/botsmith-backend/internal/http/handlers"
	httpMW "github.com/yungbote/botsmith-backend/internal/http/middleware"
	"github.com/yungbote/botsmith-backend/internal/realtime/bus"
	"github.com/yungbote/botsmith-backend/internal/repos"
	"github.com/yungbote/botsmith-backend/internal/repos/testutil"
	"github.com/yungbote/botsmith-backend/internal/services"
	"github.com/yungbote/botsmith-backend/internal/types"
)

type cannedCompleter struct{ reply string }

func (cc cannedCompleter) CompleteChat(ctx context.Context, systemPrompt string, history []*types.ChatMessage, userMessage string) (string, error) {
	return cc.reply, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(gdb, log)
	userTokenRepo := repos.NewUserTokenRepo(gdb, log)
	personaRepo := repos.NewPersonaRepo(gdb, log)
	chatbotRepo := repos.NewChatbotRepo(gdb, log)
	chatRepo := repos.NewChatRepo(gdb, log)

	noop := bus.NoopBus{}
	authService := services.NewAuthService(gdb, log, userRepo, userTokenRepo, "test-secret", time.Hour, 24*time.Hour)
	userService := services.NewUserService(gdb, log, userRepo)
	personaService := services.NewPersonaService(gdb, log, personaRepo, noop)
	chatbotService := services.NewChatbotService(gdb, log, chatbotRepo, personaRepo, chatRepo, userRepo, nil, noop)
	chatService := services.NewChatService(gdb, log, chatRepo, chatbotRepo, personaRepo, cannedCompleter{reply: "canned"}, noop)

	return NewRouter(RouterConfig{
		AuthMiddleware: httpMW.NewAuthMiddleware(log, authService),
		AuthHandler:    httpH.NewAuthHandler(authService),
		UserHandler:    httpH.NewUserHandler(userService),
		PersonaHandler: httpH.NewPersonaHandler(personaService),
		ChatbotHandler: httpH.NewChatbotHandler(chatbotService),
		ChatHandler:    httpH.NewChatHandler(chatService),
		HealthHandler:  httpH.NewHealthHandler(),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	parsed := map[string]any{}
	if len(w.Body.Bytes()) > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("invalid json body %q: %v", w.Body.String(), err)
		}
	}
	return w, parsed
}

func registerAndLogin(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	email := username + "@example.com"
	w, _ := doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"email": email, "username": username, "password": "hunter2secret",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed with %d: %s", w.Code, w.Body.String())
	}
	w, body := doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email": email, "password": "hunter2secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", w.Code, w.Body.String())
	}
	token, _ := body["accessToken"].(string)
	if token == "" {
		t.Fatalf("no access token in login response: %v", body)
	}
	return token
}

func TestHealthcheck(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestEnvelopeOnValidationFailure(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "alice")

	w, body := doJSON(t, r, http.MethodPost, "/api/personas", token, gin.H{"name": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if success, _ := body["success"].(bool); success {
		t.Fatal("expected success=false")
	}
	if status, _ := body["status"].(float64); int(status) != http.StatusBadRequest {
		t.Fatalf("expected status field 400, got %v", body["status"])
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Fatal("expected a message in the envelope")
	}

	// Nothing persisted (verified through the listing).
	w, body = doJSON(t, r, http.MethodGet, "/api/personas", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list failed: %d", w.Code)
	}
	if personas, ok := body["personas"].([]any); ok && len(personas) != 0 {
		t.Fatalf("rejected create persisted a persona: %d", len(personas))
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/user"},
		{http.MethodGet, "/api/personas"},
		{http.MethodPost, "/api/chatbots"},
		{http.MethodGet, "/api/chatbots"},
	} {
		w, _ := doJSON(t, r, route.method, route.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, w.Code)
		}
	}
}

func TestChatbotLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "alice")

	// Persona
	w, body := doJSON(t, r, http.MethodPost, "/api/personas", token, gin.H{
		"name": "Teacher", "expertise": []string{"math"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("persona create failed: %d %s", w.Code, w.Body.String())
	}
	persona := body["persona"].(map[string]any)
	personaID := persona["id"].(string)

	// Chatbot (private by default)
	w, body = doJSON(t, r, http.MethodPost, "/api/chatbots", token, gin.H{
		"name": "Bot1", "personaId": personaID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("chatbot create failed: %d %s", w.Code, w.Body.String())
	}
	chatbot := body["chatbot"].(map[string]any)
	botID := chatbot["id"].(string)
	if chatbot["visibility"] != "private" {
		t.Fatalf("expected private default, got %v", chatbot["visibility"])
	}

	// Anonymous read of the private bot hides its existence.
	w, body = doJSON(t, r, http.MethodGet, "/api/chatbots/"+botID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for anonymous private read, got %d", w.Code)
	}
	if success, _ := body["success"].(bool); success {
		t.Fatal("expected success=false")
	}

	// Toggle public, anonymous retry succeeds.
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/chatbots/%s/visibility", botID), token, gin.H{"visibility": "public"})
	if w.Code != http.StatusOK {
		t.Fatalf("visibility toggle failed: %d %s", w.Code, w.Body.String())
	}
	w, body = doJSON(t, r, http.MethodGet, "/api/chatbots/"+botID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous public read failed: %d", w.Code)
	}
	if body["persona"] == nil {
		t.Fatal("persona not attached to public read")
	}

	// Public listing includes it, with the owner's username.
	w, body = doJSON(t, r, http.MethodGet, "/api/chatbots/public", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("public listing failed: %d", w.Code)
	}
	listed := body["chatbots"].([]any)
	if len(listed) != 1 {
		t.Fatalf("expected one public bot, got %d", len(listed))
	}
	if listed[0].(map[string]any)["ownerUsername"] != "alice" {
		t.Fatalf("owner username missing: %v", listed[0])
	}

	// Another user chats with the public bot.
	bobToken := registerAndLogin(t, r, "bob")
	w, body = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/chatbots/%s/chat", botID), bobToken, gin.H{"message": "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("chat send failed: %d %s", w.Code, w.Body.String())
	}
	if body["message"] != "canned" {
		t.Fatalf("unexpected reply: %v", body["message"])
	}
	chatID := body["chatId"].(string)
	if chatID == "" {
		t.Fatal("no chat id returned")
	}

	// Bob's history holds both rows.
	w, body = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/chatbots/%s/history", botID), bobToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history failed: %d", w.Code)
	}
	messages := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	// Bob cannot mutate Alice's bot.
	w, _ = doJSON(t, r, http.MethodDelete, "/api/chatbots/"+botID, bobToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner delete, got %d", w.Code)
	}

	// Alice deletes her bot.
	w, _ = doJSON(t, r, http.MethodDelete, "/api/chatbots/"+botID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner delete failed: %d %s", w.Code, w.Body.String())
	}
}
