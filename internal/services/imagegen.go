package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yungbote/botsmith-backend/internal/platform/apierr"
	"github.com/yungbote/botsmith-backend/internal/platform/envutil"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
)

// ImageGenerator is the image half of the inference gateway. The model key is
// validated against the allow-list before any network I/O happens.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, modelKey string) (string, error)
}

// imageModels maps the public model keys to provider-specific identifiers.
var imageModels = map[string]imageModel{
	"stability-sdxl":       {provider: "stability", id: "stable-diffusion-xl-1024-v1-0"},
	"stability-sdxl-turbo": {provider: "stability", id: "sd-turbo"},
	"dalle3":               {provider: "openai", id: "dall-e-3"},
}

type imageModel struct {
	provider string
	id       string
}

type imageGenClient struct {
	log              *logger.Logger
	openaiBaseURL    string
	openaiKey        string
	stabilityBaseURL string
	stabilityKey     string
	httpClient       *http.Client
}

func NewImageGenerator(log *logger.Logger) ImageGenerator {
	timeoutSec := envutil.Int("IMAGE_TIMEOUT_SECONDS", 90)
	return &imageGenClient{
		log:              log.With("service", "ImageGenerator"),
		openaiBaseURL:    envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		openaiKey:        envutil.String("OPENAI_API_KEY", ""),
		stabilityBaseURL: envutil.String("STABILITY_BASE_URL", "https://api.stability.ai"),
		stabilityKey:     envutil.String("STABILITY_API_KEY", ""),
		httpClient:       &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

func (c *imageGenClient) GenerateImage(ctx context.Context, prompt, modelKey string) (string, error) {
	model, ok := imageModels[modelKey]
	if !ok {
		return "", apierr.InvalidInput(fmt.Errorf("unknown image model %q", modelKey))
	}

	switch model.provider {
	case "openai":
		return c.generateOpenAI(ctx, prompt, model.id)
	case "stability":
		return c.generateStability(ctx, prompt, model.id)
	default:
		return "", apierr.InvalidInput(fmt.Errorf("unknown image model %q", modelKey))
	}
}

func (c *imageGenClient) generateOpenAI(ctx context.Context, prompt, modelID string) (string, error) {
	if c.openaiKey == "" {
		return "", apierr.ProviderUnavailable(fmt.Errorf("image provider not configured"))
	}

	payload := map[string]any{
		"model":  modelID,
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	}
	raw, err := c.post(ctx, c.openaiBaseURL+"/v1/images/generations", c.openaiKey, payload)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apierr.ProviderUnavailable(fmt.Errorf("invalid image response: %w", err))
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", apierr.ProviderUnavailable(fmt.Errorf("empty image response"))
	}
	return parsed.Data[0].URL, nil
}

func (c *imageGenClient) generateStability(ctx context.Context, prompt, modelID string) (string, error) {
	if c.stabilityKey == "" {
		return "", apierr.ProviderUnavailable(fmt.Errorf("image provider not configured"))
	}

	payload := map[string]any{
		"text_prompts": []map[string]any{{"text": prompt}},
		"samples":      1,
	}
	url := fmt.Sprintf("%s/v1/generation/%s/text-to-image", c.stabilityBaseURL, modelID)
	raw, err := c.post(ctx, url, c.stabilityKey, payload)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Artifacts []struct {
			Base64 string `json:"base64"`
		} `json:"artifacts"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apierr.ProviderUnavailable(fmt.Errorf("invalid image response: %w", err))
	}
	if len(parsed.Artifacts) == 0 || parsed.Artifacts[0].Base64 == "" {
		return "", apierr.ProviderUnavailable(fmt.Errorf("empty image response"))
	}
	// Stability returns raw bytes; surface them as a data URL so the caller
	// persists one string reference either way.
	return "data:image/png;base64," + parsed.Artifacts[0].Base64, nil
}

func (c *imageGenClient) post(ctx context.Context, url, apiKey string, payload any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.ProviderUnavailable(fmt.Errorf("image request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, apierr.ProviderUnavailable(fmt.Errorf("read image response: %w", err))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apierr.RateLimited(fmt.Errorf("image provider rate limited"))
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("image provider rejected request", "status", resp.StatusCode)
		return nil, apierr.ProviderUnavailable(fmt.Errorf("image provider returned %d", resp.StatusCode))
	}
	return raw, nil
}
