// Copyright 2025, AI Chat Studio Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/chatstudiodev/chatstudio/cmd/chat/cmd"
)

func main() {
	cmd.Execute()
}
