// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/FarbodDadkhah/investment-analyst-tool/internal/schema"
	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiBackend calls the Gemini API with a response schema, so the
// service constrains its own output to the research-result shape.
type GeminiBackend struct {
	client *genai.Client
	model  string
	links  int
}

// NewGeminiBackend builds a backend for the Gemini API. links is the
// exact link count to request (<= 0 means the default 20).
func NewGeminiBackend(ctx context.Context, apiKey, model string, links int) (*GeminiBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if links <= 0 {
		links = schema.DefaultLinksPerObjective
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiBackend{client: client, model: model, links: links}, nil
}

// geminiSchema declares the structured output shape with an exact link
// count.
func geminiSchema(links int) *genai.Schema {
	n := int64(links)
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"general_objective": {Type: genai.TypeString},
			"sub_objective":     {Type: genai.TypeString},
			"links": {
				Type:     genai.TypeArray,
				Items:    &genai.Schema{Type: genai.TypeString},
				MinItems: &n,
				MaxItems: &n,
			},
		},
		Required: []string{"general_objective", "sub_objective", "links"},
	}
}

// GenerateLinks performs one schema-constrained completion call for req.
func (b *GeminiBackend) GenerateLinks(ctx context.Context, req types.ResearchRequest) (schema.RawResult, error) {
	userPrompt, err := renderUserPrompt(req, b.links)
	if err != nil {
		return schema.RawResult{}, fmt.Errorf("rendering prompt: %w", err)
	}

	resp, err := b.client.Models.GenerateContent(
		ctx,
		b.model,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			CandidateCount:    1,
			ResponseMIMEType:  "application/json",
			ResponseSchema:    geminiSchema(b.links),
		},
	)
	if err != nil {
		return schema.RawResult{}, classifyGeminiErr(err)
	}

	var raw schema.RawResult
	if err := json.Unmarshal([]byte(resp.Text()), &raw); err != nil {
		return schema.RawResult{}, fmt.Errorf("parsing completion JSON: %w", err)
	}
	return raw, nil
}

// classifyGeminiErr maps Gemini API failures onto the retry taxonomy:
// rate limits and 5xx are transient, auth and request rejections fatal.
func classifyGeminiErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &TransientError{Err: err}
		}
		return &FatalError{Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TransientError{Err: err}
	}
	return &TransientError{Err: err}
}
