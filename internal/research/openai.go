// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/FarbodDadkhah/investment-analyst-tool/internal/httputil"
	"github.com/FarbodDadkhah/investment-analyst-tool/internal/schema"
	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// openaiAPIURL is the chat completions endpoint. Package-level var for
// test substitution.
var openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIBackend calls the OpenAI chat completions API with a strict
// JSON-schema response format, so the service itself constrains the
// output to the research-result shape.
type OpenAIBackend struct {
	APIKey string
	Model  string
	Links  int
	Client *http.Client
}

// openaiRequest is the request body for the chat completions API.
type openaiRequest struct {
	Model          string           `json:"model"`
	Messages       []openaiMessage  `json:"messages"`
	ResponseFormat openaiRespFormat `json:"response_format"`
	Temperature    float64          `json:"temperature"`
}

// openaiMessage is a single message in the conversation.
type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiRespFormat declares a strict JSON schema the response must match.
type openaiRespFormat struct {
	Type       string           `json:"type"`
	JSONSchema openaiJSONSchema `json:"json_schema"`
}

type openaiJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// openaiResponse is the response body from the chat completions API.
type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

// linkSchema builds the JSON schema declaring exactly n links.
func linkSchema(n int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"general_objective": map[string]any{
				"type":        "string",
				"description": "The general investment analysis objective",
			},
			"sub_objective": map[string]any{
				"type":        "string",
				"description": "The specific sub-objective being researched",
			},
			"links": map[string]any{
				"type":        "array",
				"description": fmt.Sprintf("List of %d URLs recommended as research sources", n),
				"items":       map[string]any{"type": "string"},
				"minItems":    n,
				"maxItems":    n,
			},
		},
		"required":             []string{"general_objective", "sub_objective", "links"},
		"additionalProperties": false,
	}
}

// GenerateLinks performs one schema-constrained completion call for req.
// Transport failures and retryable status codes are wrapped in
// *TransientError; authentication failures and other request rejections
// are wrapped in *FatalError.
func (b *OpenAIBackend) GenerateLinks(ctx context.Context, req types.ResearchRequest) (schema.RawResult, error) {
	links := b.Links
	if links <= 0 {
		links = schema.DefaultLinksPerObjective
	}
	model := b.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	userPrompt, err := renderUserPrompt(req, links)
	if err != nil {
		return schema.RawResult{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := openaiRequest{
		Model: model,
		Messages: []openaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: openaiRespFormat{
			Type: "json_schema",
			JSONSchema: openaiJSONSchema{
				Name:   "link_recommendation",
				Strict: true,
				Schema: linkSchema(links),
			},
		},
		Temperature: 0.7,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return schema.RawResult{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return schema.RawResult{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return schema.RawResult{}, classifyTransportErr(err)
	}

	if resp.StatusCode != http.StatusOK {
		body := httputil.ErrorBody(resp)
		cause := fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, body)
		if httputil.RetryableStatus(resp.StatusCode) {
			return schema.RawResult{}, &TransientError{Err: cause}
		}
		return schema.RawResult{}, &FatalError{Err: cause}
	}
	defer resp.Body.Close()

	var oResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return schema.RawResult{}, fmt.Errorf("decoding OpenAI response: %w", err)
	}

	if len(oResp.Choices) == 0 {
		return schema.RawResult{}, fmt.Errorf("OpenAI API returned no choices")
	}

	var raw schema.RawResult
	if err := json.Unmarshal([]byte(oResp.Choices[0].Message.Content), &raw); err != nil {
		return schema.RawResult{}, fmt.Errorf("parsing completion JSON: %w", err)
	}
	return raw, nil
}

// classifyTransportErr wraps network-level failures as transient.
// Caller cancellation passes through unchanged so the retry loop can
// distinguish it from service failure.
func classifyTransportErr(err error) error {
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
	// Connection-level failures (refused, reset, DNS) are retryable.
	return &TransientError{Err: err}
}
