// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
)

var sendCmd = &cobra.Command{
	Use:                   "send [message...]",
	Short:                 "Send a message and print the model's reply",
	RunE:                  sendRun,
	PreRunE:               preRunSetup,
	DisableFlagsInUseLine: true,
}

var sendModelFlag string
var sendSessionFlag string
var sendImageFlag string
var sendAudioFlag string
var sendVideoFlag string
var sendPdfTextFlag string
var sendTemperatureFlag float32
var sendMaxTokensFlag int

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendModelFlag, "model", "m", "", "model id (falls back to the configured default)")
	sendCmd.Flags().StringVarP(&sendSessionFlag, "session", "s", "default", "conversation session id")
	sendCmd.Flags().StringVar(&sendImageFlag, "image", "", "attach an image file")
	sendCmd.Flags().StringVar(&sendAudioFlag, "audio", "", "attach an audio file")
	sendCmd.Flags().StringVar(&sendVideoFlag, "video", "", "attach a video file")
	sendCmd.Flags().StringVar(&sendPdfTextFlag, "pdf-text", "", "attach pre-extracted document text")
	sendCmd.Flags().Float32VarP(&sendTemperatureFlag, "temperature", "t", -1, "generation temperature override")
	sendCmd.Flags().IntVar(&sendMaxTokensFlag, "max-tokens", 0, "max output tokens override")
}

func loadSendAttachment() (*dispatch.Attachment, error) {
	type flagMime struct {
		path     string
		fallback string
		asText   bool
	}
	flags := []flagMime{
		{sendImageFlag, "image/jpeg", false},
		{sendAudioFlag, "audio/wav", false},
		{sendVideoFlag, "video/mp4", false},
		{sendPdfTextFlag, "text/plain", true},
	}
	var selected *flagMime
	for i := range flags {
		if flags[i].path == "" {
			continue
		}
		if selected != nil {
			return nil, fmt.Errorf("only one attachment flag may be used at a time")
		}
		selected = &flags[i]
	}
	if selected == nil {
		return nil, nil
	}
	data, err := os.ReadFile(selected.path)
	if err != nil {
		return nil, fmt.Errorf("reading attachment %s: %w", selected.path, err)
	}
	mimeType := selected.fallback
	if !selected.asText {
		if mt := mime.TypeByExtension(filepath.Ext(selected.path)); mt != "" {
			mimeType = mt
		}
	}
	return &dispatch.Attachment{MimeType: mimeType, Data: data}, nil
}

func sendRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no message provided")
	}
	message := strings.Join(args, " ")
	attachment, err := loadSendAttachment()
	if err != nil {
		return err
	}
	modelId := sendModelFlag
	if modelId == "" {
		modelId = settings.DefaultModel
	}
	params := settings.GenParams()
	if sendTemperatureFlag >= 0 {
		params.Temperature = sendTemperatureFlag
	}
	if sendMaxTokensFlag > 0 {
		params.MaxTokens = sendMaxTokensFlag
	}

	ctx, cancelFn := context.WithTimeout(cmd.Context(), requestTimeout())
	defer cancelFn()

	history, err := historyStore.GetHistory(ctx, sendSessionFlag)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	replyText, updated, err := dispatcher.Respond(ctx, dispatch.RespondRequest{
		Message:    message,
		History:    history,
		Attachment: attachment,
		ModelID:    modelId,
		Params:     params.Clamp(),
	})
	if err != nil {
		return err
	}
	err = historyStore.AppendTurns(ctx, sendSessionFlag, updated[len(history):])
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	fmt.Println(replyText)
	return nil
}
