package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Providers selectable via AI_PROVIDER. sourceFallback marks responses built
// from placeholder text after a provider failure.
const (
	providerOpenAI = "openai"
	providerGemini = "gemini"
	sourceFallback = "fallback"
)

const (
	openAIModel = "gpt-4o-mini"
	geminiModel = "gemini-1.5-flash"
)

// aiClient calls the configured text-generation provider over raw net/http —
// the request shapes are small enough that the vendor SDKs aren't worth their
// dependency trees. Base URLs are overridable so tests point at mock servers.
type aiClient struct {
	provider      string
	openAIKey     string
	openAIBaseURL string
	geminiKey     string
	geminiBaseURL string
	httpClient    *http.Client
}

func newAIClient(cfg appConfig) *aiClient {
	return &aiClient{
		provider:      cfg.AIProvider,
		openAIKey:     cfg.OpenAIKey,
		openAIBaseURL: cfg.OpenAIBaseURL,
		geminiKey:     cfg.GeminiKey,
		geminiBaseURL: cfg.GeminiBaseURL,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

// generateText sends the prompts to the configured provider and returns the
// reply text.
func (a *aiClient) generateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	switch a.provider {
	case providerOpenAI:
		return a.callOpenAI(ctx, systemPrompt, userPrompt)
	case providerGemini:
		return a.callGemini(ctx, systemPrompt, userPrompt)
	default:
		return "", fmt.Errorf("unknown ai provider %q", a.provider)
	}
}

/* ─── OpenAI ─────────────────────────────────────────────────────────── */

// openAIMessage is a single message in the OpenAI chat completions request.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIRequest is the request body for the OpenAI chat completions API.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

// callOpenAI sends a chat completions request and returns the first choice's
// content string.
func (a *aiClient) callOpenAI(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if a.openAIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	reqBody := openAIRequest{
		Model: openAIModel,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.4,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.openAIBaseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.openAIKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	// Parse the response to extract choices[0].message.content
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}

/* ─── Gemini ─────────────────────────────────────────────────────────── */

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// callGemini sends a generateContent request and returns the first candidate's
// text. This endpoint has no system role, so the system prompt is prepended to
// the user text.
func (a *aiClient) callGemini(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if a.geminiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: systemPrompt + "\n\n" + userPrompt}}},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", a.geminiBaseURL, geminiModel, a.geminiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result geminiResponse
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
