// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatstudiodev/chatstudio/pkg/dispatch"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the available models",
	RunE:  modelsRun,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func modelsRun(cmd *cobra.Command, args []string) error {
	for _, mb := range dispatch.ListModels() {
		marker := " "
		if mb.ModelID == dispatch.DefaultModelID {
			marker = "*"
		}
		fmt.Printf("%s %-24s %-12s %s\n", marker, mb.ModelID, mb.APIType, mb.DisplayName)
	}
	return nil
}
