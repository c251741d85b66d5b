// ABOUTME: Gemini-backed insight generator using the google.golang.org/genai SDK.
// ABOUTME: Sends the report prompt and returns the model's Markdown narrative.
package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/djtroymx1/PepMetrics-sub000/internal/analysis"
	"google.golang.org/genai"
)

// Gemini generates insights with a Gemini model.
type Gemini struct {
	model string
	call  func(ctx context.Context, prompt string) (string, error)
}

var _ Generator = (*Gemini)(nil)

// NewGemini creates a generator for the given model. An API key is required.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set GEMINI_API_KEY)")
	}
	if model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	temperature := float32(0.3)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temperature,
	}

	return &Gemini{
		model: model,
		call: func(ctx context.Context, prompt string) (string, error) {
			resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
	}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// Generate validates the report, prompts the model and returns its narrative.
func (g *Gemini) Generate(ctx context.Context, r *analysis.Report) (string, error) {
	if err := CheckReport(r); err != nil {
		return "", err
	}

	text, err := g.call(ctx, BuildPrompt(r))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}
