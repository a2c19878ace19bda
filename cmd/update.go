// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update FILE",
	Short: "Run a full firmware update: upload, mark for test, reboot",
	Long: `Run the standard firmware update flow: parse the image file, upload it
to the device, mark its hash to run on next boot, and reboot. The new
image runs once; confirm it with 'image confirm' (or from the
application) to make it permanent, otherwise the device reverts on the
following boot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _, err := readInputFile(args[0])
		if err != nil {
			return err
		}

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		progress, finish := newProgress(args[0])
		defer finish()
		return client.FirmwareUpdate(data, progress)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
