package geminiservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Gemini API Configuration ---
const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta/models/"
	defaultModel       = "gemini-2.5-flash"
	requestTimeout     = 30 * time.Second
	structuredMimeType = "application/json"
)

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents          []GeminiContent   `json:"contents"`
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *GeminiBlob `json:"inlineData,omitempty"`
}

// GeminiBlob carries inline media (base64-encoded) for vision requests.
type GeminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GenerationConfig struct {
	Temperature      float64       `json:"temperature,omitempty"`
	TopK             int           `json:"topK,omitempty"`
	TopP             float64       `json:"topP,omitempty"`
	MaxOutputTokens  int           `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *GeminiSchema `json:"response_schema,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// HistoryTurn is one prior exchange passed as conversation context.
type HistoryTurn struct {
	Role string // "user" or "model"
	Text string
}

// InlineImage is the raw image payload for a vision request.
type InlineImage struct {
	MimeType string
	Data     []byte
}

// --- Client ---

// Client is an explicitly constructed Gemini API client bound to one model.
// Callers hold their own instance; there is no package-level singleton.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	hc      *http.Client
}

// NewClient builds a client for the default model. A missing API key is a
// configuration error, reported before any network call is made.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, &APIError{Kind: KindAuthConfig, Detail: "gemini api key is not configured"}
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		hc:      &http.Client{Timeout: requestTimeout},
	}, nil
}

// WithModel returns a copy of the client bound to a different model.
// Used to derive the fallback client from the primary one.
func (c *Client) WithModel(model string) *Client {
	copied := *c
	if model != "" {
		copied.model = model
	}
	return &copied
}

// Model reports which model this client targets, for logging.
func (c *Client) Model() string {
	return c.model
}

// GenerateText sends a system instruction, prior conversation turns and the
// newest user message, and returns the model's raw text output.
func (c *Client) GenerateText(ctx context.Context, systemPrompt string, history []HistoryTurn, message string, cfg *GenerationConfig) (string, error) {
	contents := make([]GeminiContent, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, GeminiContent{
			Role:  turn.Role,
			Parts: []GeminiPart{{Text: turn.Text}},
		})
	}
	contents = append(contents, GeminiContent{
		Role:  "user",
		Parts: []GeminiPart{{Text: message}},
	})

	payload := GeminiPayload{
		Contents:         contents,
		GenerationConfig: cfg,
	}
	if systemPrompt != "" {
		payload.SystemInstruction = &GeminiContent{
			Parts: []GeminiPart{{Text: systemPrompt}},
		}
	}

	return c.do(ctx, payload)
}

// GenerateVision sends an instructional prompt together with inline image
// bytes and returns the model's raw text output.
func (c *Client) GenerateVision(ctx context.Context, prompt string, img InlineImage, cfg *GenerationConfig) (string, error) {
	payload := GeminiPayload{
		Contents: []GeminiContent{
			{
				Role: "user",
				Parts: []GeminiPart{
					{Text: prompt},
					{InlineData: &GeminiBlob{
						MimeType: img.MimeType,
						Data:     base64.StdEncoding.EncodeToString(img.Data),
					}},
				},
			},
		},
		GenerationConfig: cfg,
	}

	return c.do(ctx, payload)
}

// do performs a single HTTP request against the generateContent endpoint.
// It never retries; the Invoker owns the retry policy.
func (c *Client) do(ctx context.Context, payload GeminiPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := c.baseURL + c.model + ":generateContent?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Include the provider's error body; the classifier matches on it.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API returned non-200 status: %s, Body: %s", resp.Status, string(body))
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", &APIError{Kind: KindMalformedResponse, Detail: fmt.Sprintf("failed to decode response: %v", err)}
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", &APIError{Kind: KindMalformedResponse, Detail: "no content found in Gemini response"}
}
