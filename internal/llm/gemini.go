// Package llm talks to the Gemini text-generation API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel   = "gemini-flash-latest"
)

var (
	ErrNotConfigured = errors.New("Gemini API key not configured")
	ErrEmptyResponse = errors.New("empty Gemini response")
	ErrBlocked       = errors.New("Gemini blocked the prompt")
)

// APIError is a non-200 answer from the API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Gemini API error (status %d): %s", e.Status, e.Body)
}

// GenerationConfig mirrors the generationConfig block of generateContent.
type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
	// JSON asks the model for an application/json response.
	JSON bool
}

// Generator is the text-generation capability: prompt in, text out.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
	Model() string
}

// ModelResolver returns the current Gemini model from settings
type ModelResolver func() string

type GeminiClient struct {
	apiKey        string
	apiBase       string
	defaultModel  string
	modelResolver ModelResolver
	httpClient    *http.Client
}

func NewGeminiClient(apiKey, apiBase, model string, modelResolver ModelResolver) *GeminiClient {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClient{
		apiKey:        apiKey,
		apiBase:       strings.TrimRight(apiBase, "/"),
		defaultModel:  model,
		modelResolver: modelResolver,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Model returns the model used for the next request.
func (g *GeminiClient) Model() string {
	if g.modelResolver != nil {
		if m := g.modelResolver(); m != "" {
			return m
		}
	}
	return g.defaultModel
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP,omitempty"`
	TopK             int     `json:"topK,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	model := g.Model()
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}
	if cfg.JSON {
		reqBody.GenerationConfig.ResponseMimeType = "application/json"
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.apiBase, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("Gemini API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var geminiResp generateResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		log.Printf("[llm] empty response body: %s", string(body))
		if reason := geminiResp.PromptFeedback.BlockReason; reason != "" {
			return "", fmt.Errorf("%w: %s", ErrBlocked, reason)
		}
		return "", ErrEmptyResponse
	}

	if fr := geminiResp.Candidates[0].FinishReason; fr != "" && fr != "STOP" {
		log.Printf("[llm] WARNING: finishReason=%s", fr)
	}

	var sb strings.Builder
	for _, p := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	log.Printf("[llm] model=%s prompt=%d chars response=%d chars in %s",
		model, len(prompt), sb.Len(), time.Since(start).Round(time.Millisecond))
	return sb.String(), nil
}
