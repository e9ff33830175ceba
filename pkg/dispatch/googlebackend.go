// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleBackend talks to the Gemini API.  Vertex-aliased model ids
// resolve onto the same backend.
type GoogleBackend struct {
	apiKey string
}

var _ AIBackend = (*GoogleBackend)(nil)

func NewGoogleBackend(apiKey string) *GoogleBackend {
	return &GoogleBackend{apiKey: apiKey}
}

func (*GoogleBackend) APIType() string {
	return APIType_Gemini
}

func (b *GoogleBackend) Generate(ctx context.Context, req GenRequest) (GenResult, error) {
	if b.apiKey == "" {
		return GenResult{}, fmt.Errorf("no gemini api key configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(b.apiKey))
	if err != nil {
		return GenResult{}, fmt.Errorf("failed to create gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	model.SetTemperature(req.Params.Temperature)
	model.SetTopP(req.Params.TopP)
	model.SetTopK(int32(req.Params.TopK))
	model.SetMaxOutputTokens(int32(req.Params.MaxTokens))

	cs := model.StartChat()
	cs.History = convertGeminiHistory(req.History)

	parts := []genai.Part{genai.Text(req.Message)}
	if req.Attachment != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Attachment.MimeType, Data: req.Attachment.Data})
	}

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return GenResult{}, fmt.Errorf("gemini api error: %v", err)
	}
	return convertGeminiResponse(resp), nil
}

func convertGeminiHistory(history []Turn) []*genai.Content {
	var rtn []*genai.Content
	for _, turn := range history {
		if turn.Role != RoleUser && turn.Role != RoleModel {
			continue
		}
		var parts []genai.Part
		for _, p := range turn.Parts {
			if p.IsBlob() {
				parts = append(parts, genai.Blob{MIMEType: p.MimeType, Data: p.Data})
			} else {
				parts = append(parts, genai.Text(p.Text))
			}
		}
		if len(parts) == 0 {
			continue
		}
		rtn = append(rtn, &genai.Content{Role: turn.Role, Parts: parts})
	}
	return rtn
}

// convertGeminiResponse flattens candidate text and classifies safety
// blocks.  A prompt-level block, a safety finish reason, or an empty
// candidate list all count as blocked; the provider gave no usable
// text but the call itself succeeded.
func convertGeminiResponse(resp *genai.GenerateContentResponse) GenResult {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return GenResult{Blocked: true, FinishReason: resp.PromptFeedback.BlockReason.String()}
	}
	if len(resp.Candidates) == 0 {
		return GenResult{Blocked: true}
	}
	var rtn GenResult
	for _, c := range resp.Candidates {
		if c.FinishReason == genai.FinishReasonSafety {
			return GenResult{Blocked: true, FinishReason: c.FinishReason.String()}
		}
		rtn.FinishReason = c.FinishReason.String()
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if text, ok := p.(genai.Text); ok {
				rtn.Text += string(text)
			}
		}
	}
	return rtn
}
