// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeBackend struct {
	apiType string
	reply   string
	blocked bool
	err     error
	calls   int
	lastReq GenRequest
}

func (b *fakeBackend) APIType() string {
	return b.apiType
}

func (b *fakeBackend) Generate(ctx context.Context, req GenRequest) (GenResult, error) {
	b.calls++
	b.lastReq = req
	if b.err != nil {
		return GenResult{}, b.err
	}
	return GenResult{Text: b.reply, Blocked: b.blocked, Model: req.Model}, nil
}

func makeTestDispatcher(backends ...AIBackend) *Dispatcher {
	return NewDispatcher(RetryPolicy{Attempts: 1}, backends...)
}

func TestRespondSuccess(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, reply: "Hi there!"}
	d := makeTestDispatcher(backend)
	reply, updated, err := d.Respond(context.Background(), RespondRequest{
		Message: "Hello",
		ModelID: "gemini-2.0-flash",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply != "Hi there!" {
		t.Errorf("reply = %q, want %q", reply, "Hi there!")
	}
	if len(updated) != 2 {
		t.Fatalf("len(updated) = %d, want 2", len(updated))
	}
	if updated[0].Role != RoleUser || updated[0].TextContent() != "Hello" {
		t.Errorf("user turn = %+v", updated[0])
	}
	if updated[1].Role != RoleModel || updated[1].TextContent() != "Hi there!" {
		t.Errorf("model turn = %+v", updated[1])
	}
	if backend.lastReq.Model != "gemini-2.0-flash" {
		t.Errorf("backend model = %q", backend.lastReq.Model)
	}
}

func TestRespondAppendsToHistory(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, reply: "second reply"}
	d := makeTestDispatcher(backend)
	history := []Turn{
		UserTurn(TextPart("first")),
		ModelTurn(TextPart("first reply")),
	}
	_, updated, err := d.Respond(context.Background(), RespondRequest{
		Message: "second",
		History: history,
		ModelID: "gemini-2.0-flash",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if len(updated) != len(history)+2 {
		t.Fatalf("len(updated) = %d, want %d", len(updated), len(history)+2)
	}
	// the caller's slice must not be touched
	if len(history) != 2 {
		t.Errorf("input history was mutated, len = %d", len(history))
	}
	if len(backend.lastReq.History) != 2 {
		t.Errorf("backend got %d history turns, want 2", len(backend.lastReq.History))
	}
}

func TestRespondEmptyMessage(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, reply: "nope"}
	d := makeTestDispatcher(backend)
	history := []Turn{UserTurn(TextPart("prior"))}
	for _, message := range []string{"", "   ", "\n\t"} {
		_, updated, err := d.Respond(context.Background(), RespondRequest{
			Message: message,
			History: history,
			ModelID: "gemini-2.0-flash",
		})
		var invalidErr *InvalidInputError
		if !errors.As(err, &invalidErr) {
			t.Errorf("message %q: err = %v, want InvalidInputError", message, err)
		}
		if len(updated) != len(history) {
			t.Errorf("message %q: history changed on rejection", message)
		}
	}
	if backend.calls != 0 {
		t.Errorf("backend called %d times on invalid input", backend.calls)
	}
}

func TestRespondUnknownModelFallsBack(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, reply: "ok"}
	d := makeTestDispatcher(backend)
	_, _, err := d.Respond(context.Background(), RespondRequest{
		Message: "Hello",
		ModelID: "not-a-real-model",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if backend.lastReq.Model != DefaultModelID {
		t.Errorf("backend model = %q, want default %q", backend.lastReq.Model, DefaultModelID)
	}
}

func TestRespondUnsupportedModality(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, reply: "nope"}
	d := makeTestDispatcher(backend)
	history := []Turn{UserTurn(TextPart("prior"))}
	_, updated, err := d.Respond(context.Background(), RespondRequest{
		Message:    "Describe this",
		History:    history,
		Attachment: &Attachment{MimeType: "audio/wav", Data: []byte{1, 2, 3}},
		ModelID:    "gemini-2.0-flash-lite",
	})
	var modalityErr *UnsupportedModalityError
	if !errors.As(err, &modalityErr) {
		t.Fatalf("err = %v, want UnsupportedModalityError", err)
	}
	if modalityErr.Modality != ModalityAudio {
		t.Errorf("modality = %q, want audio", modalityErr.Modality)
	}
	if len(updated) != len(history) {
		t.Errorf("history changed on modality rejection")
	}
	if backend.calls != 0 {
		t.Errorf("backend called on modality rejection")
	}
}

func TestRespondImageUpgradesToVisionVariant(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_OpenAI, reply: "a cat"}
	d := makeTestDispatcher(backend)
	_, _, err := d.Respond(context.Background(), RespondRequest{
		Message:    "What is this?",
		Attachment: &Attachment{MimeType: "image/png", Data: []byte{1}},
		ModelID:    "gpt-3.5-turbo",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if backend.lastReq.Model != "gpt-4o" {
		t.Errorf("backend model = %q, want vision variant gpt-4o", backend.lastReq.Model)
	}
}

func TestRespondProviderError(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, err: fmt.Errorf("connection refused")}
	d := makeTestDispatcher(backend)
	history := []Turn{UserTurn(TextPart("prior"))}
	_, updated, err := d.Respond(context.Background(), RespondRequest{
		Message: "Hello",
		History: history,
		ModelID: "gemini-2.0-flash",
	})
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if len(updated) != len(history) {
		t.Errorf("history changed on provider failure")
	}
}

func TestRespondRetriesProviderError(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, err: fmt.Errorf("flaky")}
	d := NewDispatcher(RetryPolicy{Attempts: 3, Backoff: 0}, backend)
	_, _, err := d.Respond(context.Background(), RespondRequest{
		Message: "Hello",
		ModelID: "gemini-2.0-flash",
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if backend.calls != 3 {
		t.Errorf("backend calls = %d, want 3", backend.calls)
	}
}

func TestRespondSafetyBlockedUsesSentinel(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, blocked: true}
	d := makeTestDispatcher(backend)
	reply, updated, err := d.Respond(context.Background(), RespondRequest{
		Message: "something spicy",
		ModelID: "gemini-2.0-flash",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v, blocked output is not an error", err)
	}
	if reply != BlockedReplySentinel {
		t.Errorf("reply = %q, want sentinel", reply)
	}
	if len(updated) != 2 {
		t.Errorf("len(updated) = %d, want 2", len(updated))
	}
	if updated[1].TextContent() != BlockedReplySentinel {
		t.Errorf("model turn = %q, want sentinel", updated[1].TextContent())
	}
}

func TestRespondAttachmentRecordedInHistory(t *testing.T) {
	backend := &fakeBackend{apiType: APIType_Gemini, reply: "a dog"}
	d := makeTestDispatcher(backend)
	_, updated, err := d.Respond(context.Background(), RespondRequest{
		Message:    "What is this?",
		Attachment: &Attachment{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}},
		ModelID:    "gemini-2.0-flash",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	userParts := updated[0].Parts
	if len(userParts) != 2 {
		t.Fatalf("user turn has %d parts, want text + blob", len(userParts))
	}
	if !userParts[1].IsBlob() || userParts[1].MimeType != "image/jpeg" {
		t.Errorf("blob part = %+v", userParts[1])
	}
}

func TestRespondNoBackendConfigured(t *testing.T) {
	d := makeTestDispatcher()
	_, _, err := d.Respond(context.Background(), RespondRequest{
		Message: "Hello",
		ModelID: "gemini-2.0-flash",
	})
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
}
