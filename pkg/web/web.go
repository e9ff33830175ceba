// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

// Package web exposes the HTTP surface of the chat studio: one chat
// endpoint plus history and model listing.  The handlers stay thin;
// all conversation semantics live in pkg/dispatch.
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/chatstudiodev/chatstudio/pkg/panichandler"
	"github.com/chatstudiodev/chatstudio/pkg/studiobase"
)

type WebFnType = func(http.ResponseWriter, *http.Request)

// Header constants
const (
	CacheControlHeaderKey     = "Cache-Control"
	CacheControlHeaderNoCache = "no-cache"

	ContentTypeHeaderKey   = "Content-Type"
	ContentTypeJson        = "application/json"
	ContentLengthHeaderKey = "Content-Length"
)

const HttpReadTimeout = 5 * time.Second
const HttpWriteTimeout = 101 * time.Second
const HttpMaxHeaderBytes = 60000

type WebFnOpts struct {
	JsonErrors bool
}

func writeJson(w http.ResponseWriter, status int, v any) {
	jsonRtn, err := json.Marshal(v)
	if err != nil {
		jsonRtn = []byte(fmt.Sprintf(`{"error": %q}`, "error serializing response"))
		status = http.StatusInternalServerError
	}
	w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
	w.Header().Set(ContentLengthHeaderKey, fmt.Sprintf("%d", len(jsonRtn)))
	w.WriteHeader(status)
	w.Write(jsonRtn)
}

func writeJsonError(w http.ResponseWriter, status int, err error) {
	writeJson(w, status, map[string]any{"error": err.Error()})
}

func WebFnWrap(opts WebFnOpts, fn WebFnType) WebFnType {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recErr := panichandler.PanicHandler("web handler", recover())
			if recErr == nil {
				return
			}
			if opts.JsonErrors {
				writeJsonError(w, http.StatusInternalServerError, recErr)
			} else {
				http.Error(w, recErr.Error(), http.StatusInternalServerError)
			}
		}()
		w.Header().Set(CacheControlHeaderKey, CacheControlHeaderNoCache)
		fn(w, r)
	}
}

// MakeRouter wires the API routes onto a mux router.
func MakeRouter(server *Server) *mux.Router {
	gr := mux.NewRouter()
	gr.HandleFunc("/api/chat", WebFnWrap(WebFnOpts{JsonErrors: true}, server.handleChat)).Methods("POST")
	gr.HandleFunc("/api/models", WebFnWrap(WebFnOpts{JsonErrors: true}, server.handleModels)).Methods("GET")
	gr.HandleFunc("/api/history", WebFnWrap(WebFnOpts{JsonErrors: true}, server.handleGetHistory)).Methods("GET")
	gr.HandleFunc("/api/history", WebFnWrap(WebFnOpts{JsonErrors: true}, server.handleDeleteHistory)).Methods("DELETE")
	gr.HandleFunc("/api/sessions", WebFnWrap(WebFnOpts{JsonErrors: true}, server.handleListSessions)).Methods("GET")
	return gr
}

func MakeTCPListener(serverAddr string) (net.Listener, error) {
	rtn, err := net.Listen("tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("error creating listener at %v: %v", serverAddr, err)
	}
	log.Printf("Server listening on %s\n", serverAddr)
	return rtn, nil
}

// blocking
func RunWebServer(listener net.Listener, server *Server) {
	gr := MakeRouter(server)
	var corsOpts []handlers.CORSOption
	if studiobase.IsDevMode() {
		corsOpts = append(corsOpts, handlers.AllowedOrigins([]string{"*"}))
	}
	httpServer := &http.Server{
		ReadTimeout:    HttpReadTimeout,
		WriteTimeout:   HttpWriteTimeout,
		MaxHeaderBytes: HttpMaxHeaderBytes,
		Handler:        handlers.CORS(corsOpts...)(gr),
	}
	err := httpServer.Serve(listener)
	if err != nil {
		log.Printf("ERROR: %v\n", err)
	}
}
