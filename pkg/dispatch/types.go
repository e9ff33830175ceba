// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch implements the conversation dispatcher: it resolves a
// model id to a provider backend, assembles the multimodal request,
// invokes the provider, and normalizes the reply or error.
package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// BlockedReplySentinel is returned as the reply text when the provider
// blocks generation.  A blocked response is a normal terminal outcome,
// not an error.
const BlockedReplySentinel = "response blocked"

// Modality describes the content type of an attachment.
type Modality string

const (
	ModalityText     Modality = "text"
	ModalityImage    Modality = "image"
	ModalityAudio    Modality = "audio"
	ModalityVideo    Modality = "video"
	ModalityDocument Modality = "document"
)

// Part is one content fragment of a Turn.  A part is either plain text
// or a MIME-tagged binary blob.  Text parts serialize as bare JSON
// strings, blob parts as {"mimetype": ..., "data": ...}, matching the
// persisted {role, parts} record shape.
type Part struct {
	Text     string `json:"-"`
	MimeType string `json:"-"`
	Data     []byte `json:"-"`
}

type blobPartJSON struct {
	MimeType string `json:"mimetype"`
	Data     []byte `json:"data"`
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func BlobPart(mimeType string, data []byte) Part {
	return Part{MimeType: mimeType, Data: data}
}

func (p Part) IsBlob() bool {
	return p.MimeType != ""
}

func (p Part) MarshalJSON() ([]byte, error) {
	if p.IsBlob() {
		return json.Marshal(blobPartJSON{MimeType: p.MimeType, Data: p.Data})
	}
	return json.Marshal(p.Text)
}

func (p *Part) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*p = Part{Text: text}
		return nil
	}
	var blob blobPartJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return err
	}
	if blob.MimeType == "" {
		return fmt.Errorf("blob part missing mimetype")
	}
	*p = Part{MimeType: blob.MimeType, Data: blob.Data}
	return nil
}

// Turn is one role-tagged exchange unit.  Turns are immutable once
// appended to a history.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

func UserTurn(parts ...Part) Turn {
	return Turn{Role: RoleUser, Parts: parts}
}

func ModelTurn(parts ...Part) Turn {
	return Turn{Role: RoleModel, Parts: parts}
}

// TextContent flattens the text parts of a turn for providers that only
// accept plain-text history.
func (t Turn) TextContent() string {
	var sb strings.Builder
	for _, p := range t.Parts {
		if !p.IsBlob() {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Attachment is an opaque binary payload with a declared MIME type.
// Documents are pre-extracted to plain text by the caller before they
// reach the dispatcher.
type Attachment struct {
	MimeType string `json:"mimetype"`
	Data     []byte `json:"data"`
}

// Modality maps the attachment's MIME type to a modality class.
// Unrecognized types fall into ModalityDocument only when they are
// textual; everything else is reported as-is so modality checks fail
// closed.
func (a Attachment) Modality() Modality {
	mt := strings.ToLower(a.MimeType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return ModalityImage
	case strings.HasPrefix(mt, "audio/"):
		return ModalityAudio
	case strings.HasPrefix(mt, "video/"):
		return ModalityVideo
	case strings.HasPrefix(mt, "text/"), mt == "application/pdf":
		return ModalityDocument
	default:
		return Modality(mt)
	}
}
