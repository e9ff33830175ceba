// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Print the turns of a conversation session",
	RunE:    historyRun,
	PreRunE: preRunSetup,
}

var clearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete a conversation session",
	RunE:    clearRun,
	PreRunE: preRunSetup,
}

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Short:   "List conversation sessions",
	RunE:    sessionsRun,
	PreRunE: preRunSetup,
}

var historySessionFlag string

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(sessionsCmd)
	historyCmd.Flags().StringVarP(&historySessionFlag, "session", "s", "default", "conversation session id")
	clearCmd.Flags().StringVarP(&historySessionFlag, "session", "s", "default", "conversation session id")
}

func historyRun(cmd *cobra.Command, args []string) error {
	history, err := historyStore.GetHistory(cmd.Context(), historySessionFlag)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	for _, turn := range history {
		fmt.Printf("[%s] %s\n", turn.Role, turn.TextContent())
	}
	return nil
}

func clearRun(cmd *cobra.Command, args []string) error {
	err := historyStore.DeleteSession(cmd.Context(), historySessionFlag)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	fmt.Printf("session %s cleared\n", historySessionFlag)
	return nil
}

func sessionsRun(cmd *cobra.Command, args []string) error {
	sessions, err := historyStore.ListSessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	for _, sessionId := range sessions {
		fmt.Println(sessionId)
	}
	return nil
}
