// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	DefaultRetryAttempts = 2
	DefaultRetryBackoff  = 500 * time.Millisecond
)

// RetryPolicy bounds the retry loop for provider failures.  Input and
// modality errors are never retried.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultRetryAttempts, Backoff: DefaultRetryBackoff}
}

// Dispatcher routes conversation requests to provider backends.  It is
// stateless between calls and safe for concurrent use; history is read
// at call start and a new updated slice is returned, the caller's slice
// is never mutated in place.
type Dispatcher struct {
	backends map[string]AIBackend
	retry    RetryPolicy
}

func NewDispatcher(retry RetryPolicy, backends ...AIBackend) *Dispatcher {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	d := &Dispatcher{
		backends: make(map[string]AIBackend),
		retry:    retry,
	}
	for _, b := range backends {
		d.backends[b.APIType()] = b
	}
	return d
}

// RespondRequest carries one user message plus its context.
type RespondRequest struct {
	Message    string
	History    []Turn
	Attachment *Attachment
	ModelID    string
	Params     GenParams
}

// Respond validates the message, resolves the model, invokes the
// provider, and returns the reply text plus the history extended with
// the new user and model turns.  On any error the input history is
// returned unchanged.
func (d *Dispatcher) Respond(ctx context.Context, req RespondRequest) (string, []Turn, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", req.History, &InvalidInputError{Reason: "empty message"}
	}

	var modality Modality = ModalityText
	if req.Attachment != nil {
		modality = req.Attachment.Modality()
	}
	binding, ok := ResolveModelForModality(req.ModelID, modality)
	if !ok {
		return "", req.History, &UnsupportedModalityError{ModelID: binding.ModelID, Modality: modality}
	}
	backend := d.backends[binding.APIType]
	if backend == nil {
		return "", req.History, &ProviderError{APIType: binding.APIType, Err: fmt.Errorf("no backend configured for api type %s", binding.APIType)}
	}

	genReq := GenRequest{
		Model:      binding.ModelName,
		History:    req.History,
		Message:    req.Message,
		Attachment: req.Attachment,
		Params:     req.Params.Clamp(),
	}

	result, err := d.generateWithRetry(ctx, backend, genReq)
	if err != nil {
		return "", req.History, &ProviderError{APIType: binding.APIType, Err: err}
	}

	replyText := result.Text
	if result.Blocked {
		replyText = BlockedReplySentinel
	}

	userParts := []Part{TextPart(req.Message)}
	if req.Attachment != nil {
		userParts = append(userParts, BlobPart(req.Attachment.MimeType, req.Attachment.Data))
	}
	updated := make([]Turn, 0, len(req.History)+2)
	updated = append(updated, req.History...)
	updated = append(updated, UserTurn(userParts...), ModelTurn(TextPart(replyText)))
	return replyText, updated, nil
}

func (d *Dispatcher) generateWithRetry(ctx context.Context, backend AIBackend, req GenRequest) (GenResult, error) {
	var lastErr error
	for attempt := 1; attempt <= d.retry.Attempts; attempt++ {
		result, err := backend.Generate(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < d.retry.Attempts {
			log.Printf("ai request to %s failed (attempt %d/%d): %v\n", backend.APIType(), attempt, d.retry.Attempts, err)
			select {
			case <-ctx.Done():
				return GenResult{}, ctx.Err()
			case <-time.After(d.retry.Backoff):
			}
		}
	}
	return GenResult{}, lastErr
}
