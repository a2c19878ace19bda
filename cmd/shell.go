// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mveiten/gomcumgr/pkg/smp"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run commands on the device shell",
}

var shellExecCmd = &cobra.Command{
	Use:   "exec CMD [ARG...]",
	Short: "Execute a shell command and print its output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		out, ret, err := client.ShellExec(args)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printResult(map[string]any{"o": out, "ret": ret}, nil)
		}

		fmt.Print(out)
		if len(out) > 0 && out[len(out)-1] != '\n' {
			fmt.Println()
		}
		if ret != 0 {
			if ret < 0 {
				fmt.Fprintf(os.Stderr, "command failed: %s\n", smp.Errno(ret))
			} else {
				fmt.Fprintf(os.Stderr, "command returned %d\n", ret)
			}
			os.Exit(1)
		}
		return nil
	},
}

var zephyrCmd = &cobra.Command{
	Use:   "zephyr",
	Short: "Zephyr-specific management",
}

var zephyrEraseStorageCmd = &cobra.Command{
	Use:   "erase-storage",
	Short: "Erase the storage partition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		return client.EraseStorage()
	},
}

func init() {
	shellCmd.AddCommand(shellExecCmd)
	rootCmd.AddCommand(shellCmd)

	zephyrCmd.AddCommand(zephyrEraseStorageCmd)
	rootCmd.AddCommand(zephyrCmd)
}
