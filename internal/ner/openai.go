package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const extractPrompt = `You extract named entities from text.
Labels: PERSON, ORG, LOC, DATE, MONEY, PERCENT, PRODUCT, EVENT, MISC.
Respond with a JSON object: {"entities": [{"text": "<exact span from the text>", "label": "<label>"}]}.
Only include spans that appear verbatim in the text. If there are none, return {"entities": []}.`

// OpenAIExtractor finds entities with the OpenAI Chat Completions API and
// resolves their character offsets locally.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor creates an extractor for the given API key and model.
func NewOpenAIExtractor(apiKey, model string) *OpenAIExtractor {
	return &OpenAIExtractor{client: openai.NewClient(apiKey), model: model}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ner completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ner completion returned no choices")
	}

	return parseEntities(resp.Choices[0].Message.Content, text)
}

type entityList struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"entities"`
}

// parseEntities decodes the model output and locates each span in the source
// text. Spans the model invented, that do not occur verbatim, are dropped.
func parseEntities(content, source string) ([]Entity, error) {
	jsonStr := content
	if idx := strings.Index(content, "{"); idx >= 0 {
		jsonStr = content[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var list entityList
	if err := json.Unmarshal([]byte(jsonStr), &list); err != nil {
		return nil, fmt.Errorf("unparseable ner response: %w", err)
	}

	var out []Entity
	cursor := 0
	for _, e := range list.Entities {
		if e.Text == "" {
			continue
		}
		start := strings.Index(source[cursor:], e.Text)
		if start >= 0 {
			start += cursor
		} else if start = strings.Index(source, e.Text); start < 0 {
			continue
		}
		end := start + len(e.Text)
		if end > cursor {
			cursor = end
		}
		out = append(out, Entity{Text: e.Text, Label: e.Label, Start: start, End: end})
	}
	return out, nil
}
