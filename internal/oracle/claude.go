// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"text/template"
	"time"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// ClaudeOracle implements Oracle over the Claude Messages API (R5.1).
type ClaudeOracle struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Plan asks for a research strategy (R2.1).
func (c *ClaudeOracle) Plan(ctx context.Context, in PlanInput) (Plan, error) {
	var plan Plan
	if err := c.askJSON(ctx, planPromptTmpl, in, &plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// SelectSource asks for the next source choice (R3.1).
func (c *ClaudeOracle) SelectSource(ctx context.Context, in SelectInput) (Selection, error) {
	var sel Selection
	if err := c.askJSON(ctx, selectPromptTmpl, in, &sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Analyze asks for an assessment of one result batch (R4.1).
func (c *ClaudeOracle) Analyze(ctx context.Context, in AnalyzeInput) (Analysis, error) {
	var an Analysis
	if err := c.askJSON(ctx, analyzePromptTmpl, in, &an); err != nil {
		return Analysis{}, err
	}
	return an, nil
}

// SynthesizeTarget asks for a per-target narrative (R4.5).
func (c *ClaudeOracle) SynthesizeTarget(ctx context.Context, in SynthesizeInput) (string, error) {
	return c.ask(ctx, synthesizePromptTmpl, in)
}

// ConcludeRun asks for the final run narrative (R4.6).
func (c *ClaudeOracle) ConcludeRun(ctx context.Context, in ConcludeInput) (string, error) {
	return c.ask(ctx, concludePromptTmpl, in)
}

// askJSON renders the prompt, completes it, and decodes a JSON answer.
func (c *ClaudeOracle) askJSON(ctx context.Context, tmpl *template.Template, data, out any) error {
	answer, err := c.ask(ctx, tmpl, data)
	if err != nil {
		return err
	}
	return ParseJSON(answer, out)
}

// ask renders the prompt and completes it with retries (R5.3).
func (c *ClaudeOracle) ask(ctx context.Context, tmpl *template.Template, data any) (string, error) {
	prompt, err := render(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		answer, err := c.complete(ctx, prompt)
		if err == nil {
			return answer, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// complete sends one prompt to the Claude API and returns the text answer.
func (c *ClaudeOracle) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
