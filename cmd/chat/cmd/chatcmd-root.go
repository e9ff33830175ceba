// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chatstudiodev/chatstudio/pkg/chatstore"
	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
	"github.com/chatstudiodev/chatstudio/pkg/sconfig"
	"github.com/chatstudiodev/chatstudio/pkg/studiobase"
)

var (
	rootCmd = &cobra.Command{
		Use:          "chat",
		Short:        "CLI front-end for AI Chat Studio",
		Long:         `chat sends messages to the configured AI providers and keeps conversation history locally`,
		SilenceUsage: true,
	}
)

var settings sconfig.SettingsType
var historyStore chatstore.Store
var dispatcher *dispatch.Dispatcher

func preRunSetup(cmd *cobra.Command, args []string) error {
	godotenv.Load()
	err := studiobase.CacheAndRemoveEnvVars()
	if err != nil {
		return err
	}
	err = studiobase.EnsureStudioDataDir()
	if err != nil {
		return err
	}
	settings, err = sconfig.ReadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "settings error (using defaults): %v\n", err)
	}
	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()
	historyStore, err = chatstore.InitSQLiteStore(ctx)
	if err != nil {
		return fmt.Errorf("initializing history store: %w", err)
	}
	keys := studiobase.GetProviderKeys()
	retry := dispatch.RetryPolicy{
		Attempts: settings.RetryAttempts,
		Backoff:  time.Duration(settings.RetryBackoffMs) * time.Millisecond,
	}
	dispatcher = dispatch.NewDispatcher(retry,
		dispatch.NewGoogleBackend(keys.Gemini),
		dispatch.NewOpenAIBackend(keys.OpenAI, settings.OpenAIBaseURL),
		dispatch.NewAnthropicBackend(keys.Anthropic),
		dispatch.NewPerplexityBackend(keys.Perplexity),
	)
	return nil
}

func requestTimeout() time.Duration {
	if settings.RequestTimeoutMs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(settings.RequestTimeoutMs) * time.Millisecond
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
