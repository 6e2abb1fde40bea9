package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/platform/envutil"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/types"
)

// ChatCompleter is the chat half of the inference gateway. One call, one
// completion, no retry: a provider failure is relayed as-is to the caller.
type ChatCompleter interface {
	CompleteChat(ctx context.Context, systemPrompt string, history []*types.ChatMessage, userMessage string) (string, error)
}

type openAIClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIClient(log *logger.Logger) (ChatCompleter, error) {
	apiKey := envutil.String("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimRight(envutil.String("OPENAI_BASE_URL", "https://api.openai.com"), "/")
	model := envutil.String("OPENAI_MODEL", "gpt-4o-mini")
	timeoutSec := envutil.Int("OPENAI_TIMEOUT_SECONDS", 60)

	return &openAIClient{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []chatCompletionMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) CompleteChat(ctx context.Context, systemPrompt string, history []*types.ChatMessage, userMessage string) (string, error) {
	messages := make([]chatCompletionMessage, 0, len(history)+2)
	messages = append(messages, chatCompletionMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, chatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatCompletionMessage{Role: "user", Content: userMessage})

	payload := chatCompletionRequest{Model: c.model, Messages: messages}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", apierr.ProviderUnavailable(fmt.Errorf("chat completion request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", apierr.ProviderUnavailable(fmt.Errorf("read completion response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", apierr.RateLimited(fmt.Errorf("provider rate limited"))
	case resp.StatusCode >= 500:
		c.log.Warn("provider server error", "status", resp.StatusCode)
		return "", apierr.ProviderUnavailable(fmt.Errorf("provider returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		c.log.Warn("provider rejected completion", "status", resp.StatusCode)
		return "", apierr.ProviderUnavailable(fmt.Errorf("provider returned %d", resp.StatusCode))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apierr.ProviderUnavailable(fmt.Errorf("invalid completion response: %w", err))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", apierr.ProviderUnavailable(fmt.Errorf("empty completion response"))
	}
	return parsed.Choices[0].Message.Content, nil
}
