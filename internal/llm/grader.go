package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// EvaluationRequest carries everything the model needs to judge one answer.
type EvaluationRequest struct {
	QuestionText    string
	ReferenceAnswer string
	Rubric          string
	KeyWords        []string
	CandidateAnswer string
}

// EvaluationResult holds the model's judgment of a free-text answer.
// Quality is a 0-100 estimate of how well the answer matches the reference.
type EvaluationResult struct {
	Quality     int      `json:"quality"`
	Reasoning   string   `json:"reasoning"`
	Suggestions []string `json:"suggestions"`
}

// Grader evaluates free-text answers against a reference answer.
type Grader interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error)
}

// Config holds the OpenAI-compatible endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a new grading client.
func New(config Config, logger *slog.Logger) *Client {
	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiConfig),
		model:   config.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// Evaluate sends one answer to the model and parses its verdict. The response
// must be a JSON object; anything the model returns outside that contract is
// treated as a failure so the caller can fall back to manual review.
func (c *Client) Evaluate(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.CandidateAnswer},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	c.logger.Debug("LLM evaluation response", "raw", raw)

	var result EvaluationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	if result.Quality < 0 || result.Quality > 100 {
		return nil, fmt.Errorf("LLM quality out of range: %d", result.Quality)
	}
	if len(result.Suggestions) > 3 {
		result.Suggestions = result.Suggestions[:3]
	}

	return &result, nil
}

func buildSystemPrompt(req EvaluationRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an exam grader. Evaluate the candidate's answer to the following question:\n\n")
	sb.WriteString("QUESTION: " + req.QuestionText + "\n\n")

	if req.ReferenceAnswer != "" {
		sb.WriteString("REFERENCE ANSWER (not shown to candidate):\n" + req.ReferenceAnswer + "\n\n")
	}
	if req.Rubric != "" {
		sb.WriteString("GRADING RUBRIC:\n" + req.Rubric + "\n\n")
	}
	if len(req.KeyWords) > 0 {
		sb.WriteString("KEY CONCEPTS THE ANSWER SHOULD COVER: " + strings.Join(req.KeyWords, ", ") + "\n\n")
	}

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Judge correctness, completeness, and understanding against the reference answer.\n")
	sb.WriteString("- quality is an integer from 0 (entirely wrong) to 100 (fully correct and complete).\n")
	sb.WriteString("- Provide at most 3 concrete suggestions for improvement.\n")
	sb.WriteString("\nRespond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"quality": <integer 0-100>, "reasoning": "<brief justification>", "suggestions": ["<suggestion>", ...]}`)
	sb.WriteString("\n")

	return sb.String()
}
