// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "fmt"

// InvalidInputError reports a caller mistake (empty message).  It is
// surfaced verbatim and never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// UnsupportedModalityError reports an attachment whose modality the
// resolved model cannot accept.  Surfaced verbatim, never retried.
type UnsupportedModalityError struct {
	ModelID  string
	Modality Modality
}

func (e *UnsupportedModalityError) Error() string {
	return fmt.Sprintf("model %s does not support %s attachments", e.ModelID, e.Modality)
}

// ProviderError wraps an upstream failure (network, auth, malformed
// response).  The wrapped cause is kept for logs; Error() stays generic
// so credentials and internal detail never leak to end users.
type ProviderError struct {
	APIType string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider request failed", e.APIType)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
