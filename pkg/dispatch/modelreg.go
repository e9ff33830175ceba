// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "sort"

const (
	APIType_Gemini     = "gemini"
	APIType_OpenAI     = "openai"
	APIType_Anthropic  = "anthropic"
	APIType_Perplexity = "perplexity"
)

// DefaultModelID is where unknown model ids land.  Fallback, not
// failure: an unrecognized id never errors a request.
const DefaultModelID = "gemini-2.0-flash"

// ModelBinding maps a public model id to a concrete provider model.
// VisionModel, when set, names the variant to substitute when the
// request carries an attachment and the base model is text-only.
type ModelBinding struct {
	ModelID     string
	DisplayName string
	APIType     string
	ModelName   string
	VisionModel string
	Modalities  []Modality
}

func (mb ModelBinding) SupportsModality(m Modality) bool {
	if m == ModalityText {
		return true
	}
	for _, supported := range mb.Modalities {
		if supported == m {
			return true
		}
	}
	return false
}

// modelRegistry is the static allow-list of provider/model pairs.
// Gemini models accept the full multimodal surface; OpenAI and
// Anthropic chat models accept images; Perplexity is text-only.
// Documents are pre-extracted to text upstream, so every model
// accepts them.
var modelRegistry = map[string]ModelBinding{
	"gemini-1.5-pro": {
		ModelID:     "gemini-1.5-pro",
		DisplayName: "Gemini 1.5 Pro (Google)",
		APIType:     APIType_Gemini,
		ModelName:   "gemini-1.5-pro",
		Modalities:  []Modality{ModalityImage, ModalityAudio, ModalityVideo, ModalityDocument},
	},
	"gemini-1.5-flash": {
		ModelID:     "gemini-1.5-flash",
		DisplayName: "Gemini 1.5 Flash (Google)",
		APIType:     APIType_Gemini,
		ModelName:   "gemini-1.5-flash",
		Modalities:  []Modality{ModalityImage, ModalityAudio, ModalityVideo, ModalityDocument},
	},
	"gemini-2.0-flash": {
		ModelID:     "gemini-2.0-flash",
		DisplayName: "Gemini 2.0 Flash (Google)",
		APIType:     APIType_Gemini,
		ModelName:   "gemini-2.0-flash",
		Modalities:  []Modality{ModalityImage, ModalityAudio, ModalityVideo, ModalityDocument},
	},
	"gemini-2.0-flash-lite": {
		ModelID:     "gemini-2.0-flash-lite",
		DisplayName: "Gemini 2.0 Flash-Lite (Google)",
		APIType:     APIType_Gemini,
		ModelName:   "gemini-2.0-flash-lite",
		VisionModel: "gemini-2.0-flash",
		Modalities:  []Modality{ModalityDocument},
	},
	"claude-3-5-sonnet": {
		ModelID:     "claude-3-5-sonnet",
		DisplayName: "Claude 3.5 Sonnet (Anthropic)",
		APIType:     APIType_Anthropic,
		ModelName:   "claude-3-5-sonnet-20241022",
		Modalities:  []Modality{ModalityImage, ModalityDocument},
	},
	"gpt-4o": {
		ModelID:     "gpt-4o",
		DisplayName: "GPT-4o (OpenAI)",
		APIType:     APIType_OpenAI,
		ModelName:   "gpt-4o",
		Modalities:  []Modality{ModalityImage, ModalityDocument},
	},
	"gpt-4-turbo": {
		ModelID:     "gpt-4-turbo",
		DisplayName: "GPT-4 Turbo (OpenAI)",
		APIType:     APIType_OpenAI,
		ModelName:   "gpt-4-turbo",
		Modalities:  []Modality{ModalityImage, ModalityDocument},
	},
	"gpt-3.5-turbo": {
		ModelID:     "gpt-3.5-turbo",
		DisplayName: "GPT-3.5 Turbo (OpenAI)",
		APIType:     APIType_OpenAI,
		ModelName:   "gpt-3.5-turbo",
		VisionModel: "gpt-4o",
		Modalities:  []Modality{ModalityDocument},
	},
	"sonar": {
		ModelID:     "sonar",
		DisplayName: "Sonar (Perplexity)",
		APIType:     APIType_Perplexity,
		ModelName:   "sonar",
		Modalities:  []Modality{ModalityDocument},
	},
	"sonar-pro": {
		ModelID:     "sonar-pro",
		DisplayName: "Sonar Pro (Perplexity)",
		APIType:     APIType_Perplexity,
		ModelName:   "sonar-pro",
		Modalities:  []Modality{ModalityDocument},
	},
}

// modelAliases routes legacy and vertex-style ids onto registry
// entries.  Vertex ids share the Gemini backend.
var modelAliases = map[string]string{
	"gemini-1.5-pro-latest":      "gemini-1.5-pro",
	"gemini-pro":                 "gemini-1.5-pro",
	"claude-3-5-sonnet-20241022": "claude-3-5-sonnet",
	"vertex-gemini-1.5-pro":      "gemini-1.5-pro",
	"vertex-gemini-1.5-flash":    "gemini-1.5-flash",
	"vertex-gemini-2.0-flash":    "gemini-2.0-flash",
}

// ResolveModel maps a model id to its registry binding.  Unknown ids
// fall back to DefaultModelID.
func ResolveModel(modelID string) ModelBinding {
	if alias, ok := modelAliases[modelID]; ok {
		modelID = alias
	}
	if mb, ok := modelRegistry[modelID]; ok {
		return mb
	}
	return modelRegistry[DefaultModelID]
}

// ResolveModelForModality picks the binding variant appropriate for the
// given attachment modality.  A text-only model with a vision variant
// is upgraded for image attachments; other modalities never upgrade, so
// an audio attachment on a text-only model fails the capability check.
// The bool result reports whether the returned binding can actually
// accept the modality.
func ResolveModelForModality(modelID string, m Modality) (ModelBinding, bool) {
	mb := ResolveModel(modelID)
	if m == ModalityText || mb.SupportsModality(m) {
		return mb, true
	}
	if m == ModalityImage && mb.VisionModel != "" {
		if vb, ok := modelRegistry[mb.VisionModel]; ok && vb.SupportsModality(m) {
			return vb, true
		}
	}
	return mb, false
}

// ListModels returns the allow-list sorted by model id, for the models
// endpoint and the CLI.
func ListModels() []ModelBinding {
	rtn := make([]ModelBinding, 0, len(modelRegistry))
	for _, mb := range modelRegistry {
		rtn = append(rtn, mb)
	}
	sort.Slice(rtn, func(i, j int) bool {
		return rtn[i].ModelID < rtn[j].ModelID
	})
	return rtn
}
