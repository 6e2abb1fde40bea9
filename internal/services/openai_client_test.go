package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/repos/testutil"
	"github.com/yungbote/botsmith-backend/internal/types"
)

func newTestCompleter(t *testing.T, baseURL string) ChatCompleter {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", baseURL)
	completer, err := NewOpenAIClient(testutil.Logger(t))
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}
	return completer
}

func TestCompleteChatSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"42"}}]}`))
	}))
	defer srv.Close()

	completer := newTestCompleter(t, srv.URL)
	history := []*types.ChatMessage{{Role: types.RoleUser, Content: "earlier"}}
	reply, err := completer.CompleteChat(context.Background(), "be helpful", history, "meaning of life?")
	if err != nil {
		t.Fatalf("CompleteChat failed: %v", err)
	}
	if reply != "42" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestCompleteChatDoesNotRetry(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	completer := newTestCompleter(t, srv.URL)
	_, err := completer.CompleteChat(context.Background(), "sys", nil, "hi")
	if err == nil {
		t.Fatal("expected provider error")
	}
	if status, code := apierr.StatusOf(err); status != 502 || code != "provider_unavailable" {
		t.Fatalf("expected 502 provider_unavailable, got %d %s", status, code)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
}

func TestCompleteChatRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	completer := newTestCompleter(t, srv.URL)
	_, err := completer.CompleteChat(context.Background(), "sys", nil, "hi")
	if err == nil {
		t.Fatal("expected rate-limit error")
	}
	if _, code := apierr.StatusOf(err); code != "rate_limited" {
		t.Fatalf("expected rate_limited, got %s", code)
	}
}

func TestCompleteChatInvalidResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not json`))
	}))
	defer srv.Close()

	completer := newTestCompleter(t, srv.URL)
	_, err := completer.CompleteChat(context.Background(), "sys", nil, "hi")
	if err == nil {
		t.Fatal("expected invalid-response error")
	}
	if status, _ := apierr.StatusOf(err); status != 502 {
		t.Fatalf("expected 502, got %d", status)
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAIClient(testutil.Logger(t)); err == nil {
		t.Fatal("expected error without api key")
	}
}
