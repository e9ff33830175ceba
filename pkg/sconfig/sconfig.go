// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package sconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
	"github.com/chatstudiodev/chatstudio/pkg/studiobase"
)

const SettingsFile = "settings.json"

const (
	HistoryBackendSQLite = "sqlite"
	HistoryBackendS3     = "s3"
)

type SettingsType struct {
	DefaultModel     string  `json:"defaultmodel"`
	Temperature      float32 `json:"temperature"`
	MaxTokens        int     `json:"maxtokens"`
	TopP             float32 `json:"topp"`
	TopK             int     `json:"topk"`
	RequestTimeoutMs int     `json:"requesttimeoutms"`
	RetryAttempts    int     `json:"retryattempts"`
	RetryBackoffMs   int     `json:"retrybackoffms"`
	HistoryBackend   string  `json:"historybackend"`
	HistoryBucket    string  `json:"historybucket,omitempty"`
	HistoryPrefix    string  `json:"historyprefix,omitempty"`
	ListenAddr       string  `json:"listenaddr"`
	OpenAIBaseURL    string  `json:"openaibaseurl,omitempty"`
}

func getSettingsDefaults() SettingsType {
	return SettingsType{
		DefaultModel:     dispatch.DefaultModelID,
		Temperature:      dispatch.DefaultTemperature,
		MaxTokens:        dispatch.DefaultMaxTokens,
		TopP:             dispatch.DefaultTopP,
		TopK:             dispatch.DefaultTopK,
		RequestTimeoutMs: 60000,
		RetryAttempts:    dispatch.DefaultRetryAttempts,
		RetryBackoffMs:   500,
		HistoryBackend:   HistoryBackendSQLite,
		ListenAddr:       "127.0.0.1:8781",
	}
}

func GetSettingsPath() string {
	return filepath.Join(studiobase.GetStudioConfigDir(), SettingsFile)
}

// ReadSettings loads settings.json over the defaults.  A missing file
// is not an error; every field keeps its default.
func ReadSettings() (SettingsType, error) {
	settings := getSettingsDefaults()
	barr, err := os.ReadFile(GetSettingsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("error reading settings file: %w", err)
	}
	err = json.Unmarshal(barr, &settings)
	if err != nil {
		return getSettingsDefaults(), fmt.Errorf("error parsing settings file: %w", err)
	}
	return settings, nil
}

func (s SettingsType) GenParams() dispatch.GenParams {
	return dispatch.GenParams{
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		TopP:        s.TopP,
		TopK:        s.TopK,
	}.Clamp()
}
