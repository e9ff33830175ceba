// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "testing"

func TestResolveModel(t *testing.T) {
	tests := []struct {
		name     string
		modelID  string
		expected string
		apiType  string
	}{
		{"known gemini", "gemini-1.5-pro", "gemini-1.5-pro", APIType_Gemini},
		{"known openai", "gpt-4o", "gpt-4o", APIType_OpenAI},
		{"known anthropic", "claude-3-5-sonnet", "claude-3-5-sonnet", APIType_Anthropic},
		{"dated anthropic alias", "claude-3-5-sonnet-20241022", "claude-3-5-sonnet", APIType_Anthropic},
		{"vertex alias", "vertex-gemini-1.5-flash", "gemini-1.5-flash", APIType_Gemini},
		{"legacy alias", "gemini-pro", "gemini-1.5-pro", APIType_Gemini},
		{"unknown falls back", "llama-9000", DefaultModelID, APIType_Gemini},
		{"empty falls back", "", DefaultModelID, APIType_Gemini},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := ResolveModel(tt.modelID)
			if mb.ModelID != tt.expected {
				t.Errorf("ResolveModel(%q).ModelID = %q, want %q", tt.modelID, mb.ModelID, tt.expected)
			}
			if mb.APIType != tt.apiType {
				t.Errorf("ResolveModel(%q).APIType = %q, want %q", tt.modelID, mb.APIType, tt.apiType)
			}
		})
	}
}

func TestResolveModelForModality(t *testing.T) {
	tests := []struct {
		name          string
		modelID       string
		modality      Modality
		expectedModel string
		expectedOk    bool
	}{
		{"text never fails", "sonar", ModalityText, "sonar", true},
		{"gemini accepts audio", "gemini-2.0-flash", ModalityAudio, "gemini-2.0-flash", true},
		{"gemini accepts video", "gemini-1.5-pro", ModalityVideo, "gemini-1.5-pro", true},
		{"lite upgrades for image", "gemini-2.0-flash-lite", ModalityImage, "gemini-2.0-flash", true},
		{"lite rejects audio", "gemini-2.0-flash-lite", ModalityAudio, "gemini-2.0-flash-lite", false},
		{"gpt35 upgrades for image", "gpt-3.5-turbo", ModalityImage, "gpt-4o", true},
		{"claude accepts image", "claude-3-5-sonnet", ModalityImage, "claude-3-5-sonnet", true},
		{"claude rejects video", "claude-3-5-sonnet", ModalityVideo, "claude-3-5-sonnet", false},
		{"perplexity rejects image", "sonar", ModalityImage, "sonar", false},
		{"every model accepts documents", "gpt-4o", ModalityDocument, "gpt-4o", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb, ok := ResolveModelForModality(tt.modelID, tt.modality)
			if ok != tt.expectedOk {
				t.Errorf("ok = %v, want %v", ok, tt.expectedOk)
			}
			if mb.ModelID != tt.expectedModel {
				t.Errorf("model = %q, want %q", mb.ModelID, tt.expectedModel)
			}
		})
	}
}

func TestListModelsSortedAndComplete(t *testing.T) {
	models := ListModels()
	if len(models) != len(modelRegistry) {
		t.Fatalf("ListModels() returned %d entries, registry has %d", len(models), len(modelRegistry))
	}
	for i := 1; i < len(models); i++ {
		if models[i-1].ModelID >= models[i].ModelID {
			t.Errorf("models not sorted: %q before %q", models[i-1].ModelID, models[i].ModelID)
		}
	}
}
