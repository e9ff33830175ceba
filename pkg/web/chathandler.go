// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chatstudiodev/chatstudio/pkg/chatstore"
	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
	"github.com/chatstudiodev/chatstudio/pkg/sconfig"
)

// Responder is the dispatcher surface the handlers need; tests swap in
// a fake.
type Responder interface {
	Respond(ctx context.Context, req dispatch.RespondRequest) (string, []dispatch.Turn, error)
}

type Server struct {
	Dispatcher Responder
	Store      chatstore.Store
	Settings   sconfig.SettingsType
}

type chatRequestType struct {
	Prompt      string   `json:"prompt"`
	Session     string   `json:"session,omitempty"`
	Model       string   `json:"model,omitempty"`
	ImagePath   string   `json:"imagepath,omitempty"`
	AudioPath   string   `json:"audiopath,omitempty"`
	VideoPath   string   `json:"videopath,omitempty"`
	PdfTextPath string   `json:"pdftextpath,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxtokens,omitempty"`
	TopP        *float32 `json:"topp,omitempty"`
	TopK        *int     `json:"topk,omitempty"`
}

type chatResponseType struct {
	Response string `json:"response"`
	Session  string `json:"session"`
	Model    string `json:"model"`
}

func (s *Server) requestTimeout() time.Duration {
	if s.Settings.RequestTimeoutMs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.Settings.RequestTimeoutMs) * time.Millisecond
}

// loadAttachment resolves at most one attachment path into an opaque
// binary+MIME pair.  PDF attachments must already be extracted to plain
// text by the caller, so the pdftextpath file is read as document text.
func loadAttachment(req chatRequestType) (*dispatch.Attachment, error) {
	type pathMime struct {
		path     string
		fallback string
		asText   bool
	}
	candidates := []pathMime{
		{req.ImagePath, "image/jpeg", false},
		{req.AudioPath, "audio/wav", false},
		{req.VideoPath, "video/mp4", false},
		{req.PdfTextPath, "text/plain", true},
	}
	var selected *pathMime
	for i := range candidates {
		if candidates[i].path == "" {
			continue
		}
		if selected != nil {
			return nil, fmt.Errorf("only one attachment is allowed per request")
		}
		selected = &candidates[i]
	}
	if selected == nil {
		return nil, nil
	}
	data, err := os.ReadFile(selected.path)
	if err != nil {
		return nil, fmt.Errorf("error reading attachment %s: %v", selected.path, err)
	}
	mimeType := selected.fallback
	if !selected.asText {
		if mt := mime.TypeByExtension(filepath.Ext(selected.path)); mt != "" {
			mimeType = mt
		}
	}
	return &dispatch.Attachment{MimeType: mimeType, Data: data}, nil
}

func (s *Server) buildGenParams(req chatRequestType) dispatch.GenParams {
	params := s.Settings.GenParams()
	if req.Temperature != nil {
		params.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		params.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		params.TopP = *req.TopP
	}
	if req.TopK != nil {
		params.TopK = *req.TopK
	}
	return params.Clamp()
}

func errToStatusCode(err error) int {
	var invalidErr *dispatch.InvalidInputError
	var modalityErr *dispatch.UnsupportedModalityError
	var providerErr *dispatch.ProviderError
	switch {
	case errors.As(err, &invalidErr):
		return http.StatusBadRequest
	case errors.As(err, &modalityErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	bodyData, err := io.ReadAll(r.Body)
	if err != nil {
		writeJsonError(w, http.StatusBadRequest, fmt.Errorf("unable to read request body"))
		return
	}
	defer r.Body.Close()
	var chatReq chatRequestType
	if err := json.Unmarshal(bodyData, &chatReq); err != nil {
		writeJsonError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}
	sessionId := chatReq.Session
	if sessionId == "" {
		sessionId = uuid.New().String()
	}
	modelId := chatReq.Model
	if modelId == "" {
		modelId = s.Settings.DefaultModel
	}
	attachment, err := loadAttachment(chatReq)
	if err != nil {
		writeJsonError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancelFn := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancelFn()

	history, err := s.Store.GetHistory(ctx, sessionId)
	if err != nil {
		writeJsonError(w, http.StatusInternalServerError, fmt.Errorf("error loading history: %v", err))
		return
	}
	replyText, updated, err := s.Dispatcher.Respond(ctx, dispatch.RespondRequest{
		Message:    chatReq.Prompt,
		History:    history,
		Attachment: attachment,
		ModelID:    modelId,
		Params:     s.buildGenParams(chatReq),
	})
	if err != nil {
		writeJsonError(w, errToStatusCode(err), err)
		return
	}
	// only the new turns get persisted; history is append-only
	if err := s.Store.AppendTurns(ctx, sessionId, updated[len(history):]); err != nil {
		writeJsonError(w, http.StatusInternalServerError, fmt.Errorf("error saving history: %v", err))
		return
	}
	writeJson(w, http.StatusOK, chatResponseType{
		Response: replyText,
		Session:  sessionId,
		Model:    dispatch.ResolveModel(modelId).ModelID,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	type modelInfo struct {
		ModelID     string `json:"modelid"`
		DisplayName string `json:"displayname"`
		APIType     string `json:"apitype"`
	}
	var rtn []modelInfo
	for _, mb := range dispatch.ListModels() {
		rtn = append(rtn, modelInfo{ModelID: mb.ModelID, DisplayName: mb.DisplayName, APIType: mb.APIType})
	}
	writeJson(w, http.StatusOK, map[string]any{"models": rtn, "default": s.Settings.DefaultModel})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionId := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionId == "" {
		writeJsonError(w, http.StatusBadRequest, fmt.Errorf("session is required"))
		return
	}
	history, err := s.Store.GetHistory(r.Context(), sessionId)
	if err != nil {
		writeJsonError(w, http.StatusInternalServerError, fmt.Errorf("error loading history: %v", err))
		return
	}
	if history == nil {
		history = []dispatch.Turn{}
	}
	writeJson(w, http.StatusOK, map[string]any{"session": sessionId, "history": history})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	sessionId := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionId == "" {
		writeJsonError(w, http.StatusBadRequest, fmt.Errorf("session is required"))
		return
	}
	if err := s.Store.DeleteSession(r.Context(), sessionId); err != nil {
		writeJsonError(w, http.StatusInternalServerError, fmt.Errorf("error deleting session: %v", err))
		return
	}
	writeJson(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.Store.ListSessions(r.Context())
	if err != nil {
		writeJsonError(w, http.StatusInternalServerError, fmt.Errorf("error listing sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []string{}
	}
	writeJson(w, http.StatusOK, map[string]any{"sessions": sessions})
}
