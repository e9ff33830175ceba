// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package sconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
	"github.com/chatstudiodev/chatstudio/pkg/studiobase"
)

func setTestConfigHome(t *testing.T) string {
	t.Helper()
	oldHome := studiobase.ConfigHome_VarCache
	dir := t.TempDir()
	studiobase.ConfigHome_VarCache = dir
	t.Cleanup(func() {
		studiobase.ConfigHome_VarCache = oldHome
	})
	return dir
}

func TestReadSettingsMissingFile(t *testing.T) {
	setTestConfigHome(t)
	settings, err := ReadSettings()
	if err != nil {
		t.Fatalf("ReadSettings error: %v", err)
	}
	if settings.DefaultModel != dispatch.DefaultModelID {
		t.Errorf("DefaultModel = %q", settings.DefaultModel)
	}
	if settings.HistoryBackend != HistoryBackendSQLite {
		t.Errorf("HistoryBackend = %q", settings.HistoryBackend)
	}
	if settings.RequestTimeoutMs != 60000 {
		t.Errorf("RequestTimeoutMs = %d", settings.RequestTimeoutMs)
	}
}

func TestReadSettingsOverrides(t *testing.T) {
	dir := setTestConfigHome(t)
	content := `{"defaultmodel": "gpt-4o", "temperature": 0.2, "listenaddr": "0.0.0.0:9000"}`
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(content), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	settings, err := ReadSettings()
	if err != nil {
		t.Fatalf("ReadSettings error: %v", err)
	}
	if settings.DefaultModel != "gpt-4o" {
		t.Errorf("DefaultModel = %q", settings.DefaultModel)
	}
	if settings.Temperature != 0.2 {
		t.Errorf("Temperature = %v", settings.Temperature)
	}
	if settings.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q", settings.ListenAddr)
	}
	// untouched fields keep their defaults
	if settings.MaxTokens != dispatch.DefaultMaxTokens {
		t.Errorf("MaxTokens = %d", settings.MaxTokens)
	}
}

func TestReadSettingsBadJson(t *testing.T) {
	dir := setTestConfigHome(t)
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte("{bad json"), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	settings, err := ReadSettings()
	if err == nil {
		t.Fatal("expected parse error")
	}
	if settings.DefaultModel != dispatch.DefaultModelID {
		t.Errorf("bad settings file should leave defaults, got DefaultModel = %q", settings.DefaultModel)
	}
}

func TestGenParamsClamped(t *testing.T) {
	settings := SettingsType{Temperature: 3.5, MaxTokens: -1, TopP: 0.9, TopK: 40}
	params := settings.GenParams()
	if params.Temperature != 1.0 {
		t.Errorf("Temperature = %v, want 1.0", params.Temperature)
	}
	if params.MaxTokens != dispatch.DefaultMaxTokens {
		t.Errorf("MaxTokens = %d", params.MaxTokens)
	}
}
