// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"

	openaiapi "github.com/sashabaranov/go-openai"
)

type OpenAIBackend struct {
	apiKey  string
	baseURL string
}

var _ AIBackend = (*OpenAIBackend)(nil)

func NewOpenAIBackend(apiKey string, baseURL string) *OpenAIBackend {
	return &OpenAIBackend{apiKey: apiKey, baseURL: baseURL}
}

func (*OpenAIBackend) APIType() string {
	return APIType_OpenAI
}

func (b *OpenAIBackend) Generate(ctx context.Context, req GenRequest) (GenResult, error) {
	if b.apiKey == "" {
		return GenResult{}, fmt.Errorf("no openai api key configured")
	}
	clientConfig := openaiapi.DefaultConfig(b.apiKey)
	if b.baseURL != "" {
		clientConfig.BaseURL = b.baseURL
	}
	client := openaiapi.NewClientWithConfig(clientConfig)

	apiReq := openaiapi.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertOpenAIMessages(req),
		MaxTokens:   req.Params.MaxTokens,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
	}

	resp, err := client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return GenResult{}, fmt.Errorf("error calling openai API: %v", err)
	}
	if len(resp.Choices) == 0 {
		return GenResult{Model: resp.Model, Blocked: true}, nil
	}
	choice := resp.Choices[0]
	rtn := GenResult{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
	}
	if choice.FinishReason == openaiapi.FinishReasonContentFilter {
		rtn.Blocked = true
	}
	return rtn, nil
}

func convertOpenAIMessages(req GenRequest) []openaiapi.ChatCompletionMessage {
	var rtn []openaiapi.ChatCompletionMessage
	for _, turn := range req.History {
		role := openaiapi.ChatMessageRoleUser
		if turn.Role == RoleModel {
			role = openaiapi.ChatMessageRoleAssistant
		}
		rtn = append(rtn, openaiapi.ChatCompletionMessage{Role: role, Content: turn.TextContent()})
	}
	userMsg := openaiapi.ChatCompletionMessage{Role: openaiapi.ChatMessageRoleUser}
	if req.Attachment != nil && req.Attachment.Modality() == ModalityImage {
		userMsg.MultiContent = []openaiapi.ChatMessagePart{
			{Type: openaiapi.ChatMessagePartTypeText, Text: req.Message},
			{
				Type: openaiapi.ChatMessagePartTypeImageURL,
				ImageURL: &openaiapi.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", req.Attachment.MimeType, base64.StdEncoding.EncodeToString(req.Attachment.Data)),
				},
			},
		}
	} else if req.Attachment != nil && req.Attachment.Modality() == ModalityDocument {
		userMsg.Content = req.Message + "\n\n" + string(req.Attachment.Data)
	} else {
		userMsg.Content = req.Message
	}
	return append(rtn, userMsg)
}
