package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You answer questions strictly from the provided document context.
Rules:
- Use only facts stated in the context. Never use outside knowledge.
- If the context does not contain the answer, return an empty answer.
- Respond with a JSON object: {"answer": "<answer text>", "confidence": <number between 0 and 1>}.`

// OpenAIService answers questions with the OpenAI Chat Completions API.
type OpenAIService struct {
	client *openai.Client
	model  string
}

// NewOpenAIService creates a QA service for the given API key and model.
func NewOpenAIService(apiKey, model string) *OpenAIService {
	return &OpenAIService{client: openai.NewClient(apiKey), model: model}
}

func (s *OpenAIService) Answer(ctx context.Context, question, docContext string) (*Result, error) {
	user := fmt.Sprintf("## Context\n%s\n\n## Question\n%s", docContext, question)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qa completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("qa completion returned no choices")
	}

	return parseAnswer(resp.Choices[0].Message.Content), nil
}

// parseAnswer extracts the JSON object from the model output. The response
// may be wrapped in markdown fences; anything unparseable becomes a plain
// answer with no confidence.
func parseAnswer(content string) *Result {
	jsonStr := content
	if idx := strings.Index(content, "{"); idx >= 0 {
		jsonStr = content[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var res Result
	if err := json.Unmarshal([]byte(jsonStr), &res); err != nil {
		return &Result{Answer: strings.TrimSpace(content)}
	}
	return &res
}
