package providers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/codeforge-ai/codeforge/internal/router"
)

// Wire types for OpenAI-compatible chat completion APIs.

type ccMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ccRequest struct {
	Model       string      `json:"model"`
	Messages    []ccMessage `json:"messages"`
	MaxTokens   int         `json:"max_tokens"`
	Temperature float64     `json:"temperature"`
	Stream      bool        `json:"stream,omitempty"`
}

type ccResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type ccChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatCompletionPayload builds an OpenAI-compatible request body. The first
// system message, if any, leads the message list.
func ChatCompletionPayload(model string, req router.Request, stream bool, logger *slog.Logger) any {
	system, rest := SplitSystem(req.Messages, logger)
	msgs := make([]ccMessage, 0, len(rest)+1)
	if system != "" {
		msgs = append(msgs, ccMessage{Role: router.RoleSystem, Content: system})
	}
	for _, m := range rest {
		msgs = append(msgs, ccMessage{Role: m.Role, Content: m.Content})
	}
	return ccRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   req.EffectiveMaxTokens(),
		Temperature: req.EffectiveTemperature(),
		Stream:      stream,
	}
}

// ParseChatCompletion extracts the first choice's text and token usage.
// Missing usage counts as zero.
func ParseChatCompletion(providerID string, body []byte) (content string, inputTokens, outputTokens int, err error) {
	var resp ccResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", 0, 0, &router.ParseError{Provider: providerID, Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", 0, 0, &router.ParseError{Provider: providerID, Err: errors.New("no choices in response")}
	}
	if resp.Usage != nil {
		inputTokens, outputTokens = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	}
	return *resp.Choices[0].Message.Content, inputTokens, outputTokens, nil
}

// ChatCompletionDecoder decodes OpenAI-compatible stream chunks.
func ChatCompletionDecoder(providerID string) FrameDecoder {
	return func(f Frame) (string, error) {
		var chunk ccChunk
		if err := json.Unmarshal([]byte(f.Data), &chunk); err != nil {
			return "", &router.ParseError{Provider: providerID, Err: err}
		}
		if chunk.Error != nil {
			return "", &router.ProviderError{Provider: providerID, Body: chunk.Error.Message}
		}
		if len(chunk.Choices) == 0 {
			return "", nil
		}
		return chunk.Choices[0].Delta.Content, nil
	}
}
