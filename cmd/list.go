// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveiten/gomcumgr/pkg/mcumgr"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List USB serial devices usable with --usb",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := mcumgr.ListUSBPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("no USB serial devices found")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
