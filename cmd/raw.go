// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveiten/gomcumgr/pkg/smp"
)

var rawWrite bool

var rawCmd = &cobra.Command{
	Use:   "raw GROUP COMMAND [CBOR-HEX]",
	Short: "Send an arbitrary SMP request",
	Long: `Send an arbitrary SMP request and print the raw CBOR response as hex.

GROUP and COMMAND are numeric. The optional payload is CBOR as a hex
string; the empty map is sent when omitted. Reads by default, --write
sends a write operation.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var group uint16
		if _, err := fmt.Sscanf(args[0], "%d", &group); err != nil {
			return fmt.Errorf("invalid group %q", args[0])
		}
		var command uint8
		if _, err := fmt.Sscanf(args[1], "%d", &command); err != nil {
			return fmt.Errorf("invalid command %q", args[1])
		}
		var payload []byte
		if len(args) == 3 {
			var err error
			payload, err = hex.DecodeString(args[2])
			if err != nil {
				return fmt.Errorf("invalid payload hex: %w", err)
			}
		}

		op := smp.OpRead
		if rawWrite {
			op = smp.OpWrite
		}

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		rsp, err := client.RawCommand(op, smp.Group(group), command, payload)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(rsp))
		return nil
	},
}

func init() {
	rawCmd.Flags().BoolVar(&rawWrite, "write", false, "Send a write operation instead of a read")
	rootCmd.AddCommand(rawCmd)
}
