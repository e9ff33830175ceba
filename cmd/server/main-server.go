// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chatstudiodev/chatstudio/pkg/bucketstore"
	"github.com/chatstudiodev/chatstudio/pkg/chatstore"
	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
	"github.com/chatstudiodev/chatstudio/pkg/sconfig"
	"github.com/chatstudiodev/chatstudio/pkg/studiobase"
	"github.com/chatstudiodev/chatstudio/pkg/web"
)

// these are set at build time
var StudioVersion = "0.0.0"
var BuildTime = "0"

var shutdownOnce sync.Once

func doShutdown(reason string, store chatstore.Store) {
	shutdownOnce.Do(func() {
		log.Printf("shutting down: %s\n", reason)
		if closer, ok := store.(interface{ Close() error }); ok {
			closer.Close()
		}
		log.Printf("shutdown complete\n")
		os.Exit(0)
	})
}

func installShutdownSignalHandlers(store chatstore.Store) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for sig := range sigCh {
			doShutdown(fmt.Sprintf("got signal %v", sig), store)
			break
		}
	}()
}

func makeStore(ctx context.Context, settings sconfig.SettingsType) (chatstore.Store, error) {
	switch settings.HistoryBackend {
	case sconfig.HistoryBackendS3:
		return bucketstore.InitS3Store(ctx, settings.HistoryBucket, settings.HistoryPrefix)
	case sconfig.HistoryBackendSQLite, "":
		return chatstore.InitSQLiteStore(ctx)
	default:
		return nil, fmt.Errorf("unknown history backend %q", settings.HistoryBackend)
	}
}

func makeDispatcher(settings sconfig.SettingsType) *dispatch.Dispatcher {
	keys := studiobase.GetProviderKeys()
	retry := dispatch.RetryPolicy{
		Attempts: settings.RetryAttempts,
		Backoff:  time.Duration(settings.RetryBackoffMs) * time.Millisecond,
	}
	return dispatch.NewDispatcher(retry,
		dispatch.NewGoogleBackend(keys.Gemini),
		dispatch.NewOpenAIBackend(keys.OpenAI, settings.OpenAIBaseURL),
		dispatch.NewAnthropicBackend(keys.Anthropic),
		dispatch.NewPerplexityBackend(keys.Perplexity),
	)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[chatstudio] ")

	// .env is optional; real deployments inject the vars directly
	godotenv.Load()

	err := studiobase.CacheAndRemoveEnvVars()
	if err != nil {
		log.Printf("error caching env vars: %v\n", err)
		return
	}
	studiobase.StudioVersion = StudioVersion
	studiobase.BuildTime = BuildTime

	err = studiobase.EnsureStudioDataDir()
	if err != nil {
		log.Printf("error ensuring data dir: %v\n", err)
		return
	}
	settings, err := sconfig.ReadSettings()
	if err != nil {
		log.Printf("settings error (using defaults): %v\n", err)
	}

	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()
	store, err := makeStore(ctx, settings)
	if err != nil {
		log.Printf("error initializing history store: %v\n", err)
		return
	}
	installShutdownSignalHandlers(store)

	server := &web.Server{
		Dispatcher: makeDispatcher(settings),
		Store:      store,
		Settings:   settings,
	}
	listener, err := web.MakeTCPListener(settings.ListenAddr)
	if err != nil {
		log.Printf("error creating listener: %v\n", err)
		return
	}
	log.Printf("chatstudio server %s starting\n", StudioVersion)
	web.RunWebServer(listener, server)
}
