// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const perplexityChatURL = "https://api.perplexity.ai/chat/completions"

type PerplexityBackend struct {
	apiKey     string
	httpClient *http.Client
}

var _ AIBackend = (*PerplexityBackend)(nil)

func NewPerplexityBackend(apiKey string) *PerplexityBackend {
	return &PerplexityBackend{apiKey: apiKey, httpClient: &http.Client{}}
}

func (*PerplexityBackend) APIType() string {
	return APIType_Perplexity
}

// Perplexity API types (OpenAI-compatible wire shape)
type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model       string              `json:"model"`
	Messages    []perplexityMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float32             `json:"temperature,omitempty"`
	TopP        float32             `json:"top_p,omitempty"`
}

type perplexityResponseChoice struct {
	Message      perplexityMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type perplexityResponse struct {
	ID      string                     `json:"id"`
	Model   string                     `json:"model"`
	Choices []perplexityResponseChoice `json:"choices"`
}

func (b *PerplexityBackend) Generate(ctx context.Context, req GenRequest) (GenResult, error) {
	if b.apiKey == "" {
		return GenResult{}, fmt.Errorf("no perplexity api key configured")
	}

	message := req.Message
	if req.Attachment != nil && req.Attachment.Modality() == ModalityDocument {
		message = req.Message + "\n\n" + string(req.Attachment.Data)
	}
	var messages []perplexityMessage
	for _, turn := range req.History {
		role := "user"
		if turn.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, perplexityMessage{Role: role, Content: turn.TextContent()})
	}
	messages = append(messages, perplexityMessage{Role: "user", Content: message})

	perplexityReq := perplexityRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.Params.MaxTokens,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
	}
	reqBody, err := json.Marshal(perplexityReq)
	if err != nil {
		return GenResult{}, fmt.Errorf("failed to marshal perplexity request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", perplexityChatURL, strings.NewReader(string(reqBody)))
	if err != nil {
		return GenResult{}, fmt.Errorf("failed to create perplexity request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return GenResult{}, fmt.Errorf("failed to send perplexity request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return GenResult{}, fmt.Errorf("perplexity API error: %s - %s", resp.Status, string(bodyBytes))
	}

	var apiResp perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return GenResult{}, fmt.Errorf("error decoding perplexity response: %v", err)
	}
	if len(apiResp.Choices) == 0 {
		return GenResult{Model: apiResp.Model, Blocked: true}, nil
	}
	choice := apiResp.Choices[0]
	return GenResult{
		Text:         choice.Message.Content,
		Model:        apiResp.Model,
		FinishReason: choice.FinishReason,
	}, nil
}
