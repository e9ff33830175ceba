// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
const anthropicAPIVersion = "2023-06-01"

type AnthropicBackend struct {
	apiKey     string
	httpClient *http.Client
}

var _ AIBackend = (*AnthropicBackend)(nil)

func NewAnthropicBackend(apiKey string) *AnthropicBackend {
	return &AnthropicBackend{apiKey: apiKey, httpClient: &http.Client{}}
}

func (*AnthropicBackend) APIType() string {
	return APIType_Anthropic
}

// Claude API request types
type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
	TopP        float32            `json:"top_p,omitempty"`
	TopK        int                `json:"top_k,omitempty"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason,omitempty"`
}

func (b *AnthropicBackend) Generate(ctx context.Context, req GenRequest) (GenResult, error) {
	if b.apiKey == "" {
		return GenResult{}, fmt.Errorf("no anthropic api key configured")
	}

	anthropicReq := anthropicRequest{
		Model:       req.Model,
		Messages:    convertAnthropicMessages(req),
		MaxTokens:   req.Params.MaxTokens,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		TopK:        req.Params.TopK,
	}
	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return GenResult{}, fmt.Errorf("failed to marshal anthropic request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", anthropicMessagesURL, strings.NewReader(string(reqBody)))
	if err != nil {
		return GenResult{}, fmt.Errorf("failed to create anthropic request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return GenResult{}, fmt.Errorf("failed to send anthropic request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return GenResult{}, fmt.Errorf("anthropic API error: %s - %s", resp.Status, string(bodyBytes))
	}

	var apiResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return GenResult{}, fmt.Errorf("error decoding anthropic response: %v", err)
	}

	rtn := GenResult{Model: apiResp.Model, FinishReason: apiResp.StopReason}
	if apiResp.StopReason == "refusal" || len(apiResp.Content) == 0 {
		rtn.Blocked = true
		return rtn, nil
	}
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			rtn.Text += block.Text
		}
	}
	return rtn, nil
}

func convertAnthropicMessages(req GenRequest) []anthropicMessage {
	var rtn []anthropicMessage
	for _, turn := range req.History {
		role := "user"
		if turn.Role == RoleModel {
			role = "assistant"
		}
		content := turn.TextContent()
		if content == "" {
			continue
		}
		rtn = append(rtn, anthropicMessage{
			Role:    role,
			Content: []anthropicContentBlock{{Type: "text", Text: content}},
		})
	}

	userBlocks := []anthropicContentBlock{{Type: "text", Text: req.Message}}
	if req.Attachment != nil {
		switch req.Attachment.Modality() {
		case ModalityImage:
			userBlocks = append(userBlocks, anthropicContentBlock{
				Type: "image",
				Source: &anthropicImageSource{
					Type:      "base64",
					MediaType: req.Attachment.MimeType,
					Data:      base64.StdEncoding.EncodeToString(req.Attachment.Data),
				},
			})
		case ModalityDocument:
			userBlocks[0].Text = req.Message + "\n\n" + string(req.Attachment.Data)
		}
	}
	return append(rtn, anthropicMessage{Role: "user", Content: userBlocks})
}
