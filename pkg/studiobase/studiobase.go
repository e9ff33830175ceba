// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package studiobase

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// set by main-server.go
var StudioVersion = "0.0.0"
var BuildTime = "0"

const (
	StudioDataHomeEnvVar   = "CHATSTUDIO_DATA_HOME"
	StudioConfigHomeEnvVar = "CHATSTUDIO_CONFIG_HOME"
	StudioDevVarName       = "CHATSTUDIO_DEV"

	GeminiAPIKeyEnvVar     = "GEMINI_API_KEY"
	OpenAIAPIKeyEnvVar     = "OPENAI_API_KEY"
	AnthropicAPIKeyEnvVar  = "ANTHROPIC_API_KEY"
	PerplexityAPIKeyEnvVar = "PERPLEXITY_API_KEY"
)

const StudioDBDir = "db"
const ConfigDir = "config"
const DefaultStudioHomeDirName = ".chatstudio"

var DataHome_VarCache string   // caches CHATSTUDIO_DATA_HOME
var ConfigHome_VarCache string // caches CHATSTUDIO_CONFIG_HOME
var Dev_VarCache string        // caches CHATSTUDIO_DEV

// ProviderKeys holds the API keys read from the environment at process
// start.  All downstream code receives these explicitly; nothing past
// CacheAndRemoveEnvVars reads provider credentials from the environment.
type ProviderKeys struct {
	Gemini     string
	OpenAI     string
	Anthropic  string
	Perplexity string
}

var providerKeysCache ProviderKeys

var baseLock = &sync.Mutex{}
var ensureDirCache = map[string]bool{}

func CacheAndRemoveEnvVars() error {
	DataHome_VarCache = os.Getenv(StudioDataHomeEnvVar)
	if DataHome_VarCache == "" {
		DataHome_VarCache = filepath.Join(GetHomeDir(), DefaultStudioHomeDirName)
	}
	os.Unsetenv(StudioDataHomeEnvVar)
	ConfigHome_VarCache = os.Getenv(StudioConfigHomeEnvVar)
	if ConfigHome_VarCache == "" {
		ConfigHome_VarCache = filepath.Join(DataHome_VarCache, ConfigDir)
	}
	os.Unsetenv(StudioConfigHomeEnvVar)
	Dev_VarCache = os.Getenv(StudioDevVarName)
	os.Unsetenv(StudioDevVarName)

	providerKeysCache = ProviderKeys{
		Gemini:     os.Getenv(GeminiAPIKeyEnvVar),
		OpenAI:     os.Getenv(OpenAIAPIKeyEnvVar),
		Anthropic:  os.Getenv(AnthropicAPIKeyEnvVar),
		Perplexity: os.Getenv(PerplexityAPIKeyEnvVar),
	}
	os.Unsetenv(GeminiAPIKeyEnvVar)
	os.Unsetenv(OpenAIAPIKeyEnvVar)
	os.Unsetenv(AnthropicAPIKeyEnvVar)
	os.Unsetenv(PerplexityAPIKeyEnvVar)
	return nil
}

func IsDevMode() bool {
	return Dev_VarCache != ""
}

func GetProviderKeys() ProviderKeys {
	return providerKeysCache
}

func GetStudioDataDir() string {
	return DataHome_VarCache
}

func GetStudioConfigDir() string {
	return ConfigHome_VarCache
}

func GetStudioDBDir() string {
	return filepath.Join(GetStudioDataDir(), StudioDBDir)
}

func GetHomeDir() string {
	homeVar, err := os.UserHomeDir()
	if err != nil {
		return "/"
	}
	return homeVar
}

func EnsureStudioDataDir() error {
	return CacheEnsureDir(GetStudioDataDir(), "studiohome", 0700, "studio data directory")
}

func EnsureStudioDBDir() error {
	return CacheEnsureDir(GetStudioDBDir(), "studiodb", 0700, "studio db directory")
}

func EnsureStudioConfigDir() error {
	return CacheEnsureDir(GetStudioConfigDir(), "studioconfig", 0700, "studio config directory")
}

func CacheEnsureDir(dirName string, cacheKey string, perm os.FileMode, dirDesc string) error {
	baseLock.Lock()
	ok := ensureDirCache[cacheKey]
	baseLock.Unlock()
	if ok {
		return nil
	}
	err := TryMkdirs(dirName, perm, dirDesc)
	if err != nil {
		return err
	}
	baseLock.Lock()
	ensureDirCache[cacheKey] = true
	baseLock.Unlock()
	return nil
}

func TryMkdirs(dirName string, perm os.FileMode, dirDesc string) error {
	info, err := os.Stat(dirName)
	if errors.Is(err, fs.ErrNotExist) {
		err = os.MkdirAll(dirName, perm)
		if err != nil {
			return fmt.Errorf("cannot make %s %q: %w", dirDesc, dirName, err)
		}
		info, err = os.Stat(dirName)
	}
	if err != nil {
		return fmt.Errorf("error trying to stat %s: %w", dirDesc, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %q must be a directory", dirDesc, dirName)
	}
	return nil
}
