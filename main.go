// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten
//
// gomcumgr - MCUmgr device management over serial
//
// A CLI tool for managing MCUmgr-enabled devices: firmware updates,
// file transfer, shell access and device info over the SMP protocol.

package main

import (
	"fmt"
	"os"

	"github.com/mveiten/gomcumgr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
