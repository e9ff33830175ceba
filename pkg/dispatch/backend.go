// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "context"

// GenRequest is the normalized outbound request handed to a provider
// backend: prior turns, the new user message, and an optional
// attachment, already validated against the resolved model.
type GenRequest struct {
	Model      string
	History    []Turn
	Message    string
	Attachment *Attachment
	Params     GenParams
}

// GenResult is the normalized provider reply.  Blocked marks a
// safety-blocked generation, which is a successful call whose text is
// substituted with the sentinel by the dispatcher.
type GenResult struct {
	Text         string
	Model        string
	FinishReason string
	Blocked      bool
}

// AIBackend is implemented once per provider.  Generate issues a single
// blocking call; any transport, auth, or decode failure comes back as a
// plain error and is wrapped into a ProviderError by the dispatcher.
type AIBackend interface {
	APIType() string
	Generate(ctx context.Context, req GenRequest) (GenResult, error)
}
