// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
	DefaultTopP        = 0.95
	DefaultTopK        = 40

	MaxTokensCeiling = 8192
)

// GenParams is the generation-parameter record sent with every request.
// Out-of-range values are clamped, not rejected.
type GenParams struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"maxtokens"`
	TopP        float32 `json:"topp"`
	TopK        int     `json:"topk"`
}

func DefaultGenParams() GenParams {
	return GenParams{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
		TopK:        DefaultTopK,
	}
}

// Clamp returns a copy with every field forced into its valid range.
// Temperature and TopP clamp to [0, 1], MaxTokens to (0, ceiling],
// TopK to [1, inf).  A zero MaxTokens means the caller passed nothing
// and gets the default.
func (p GenParams) Clamp() GenParams {
	if p.Temperature < 0 {
		p.Temperature = 0
	} else if p.Temperature > 1 {
		p.Temperature = 1
	}
	if p.TopP < 0 {
		p.TopP = 0
	} else if p.TopP > 1 {
		p.TopP = 1
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	} else if p.MaxTokens > MaxTokensCeiling {
		p.MaxTokens = MaxTokensCeiling
	}
	if p.TopK < 1 {
		p.TopK = DefaultTopK
	}
	return p
}
