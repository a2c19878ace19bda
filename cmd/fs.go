// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var fsCmd = &cobra.Command{
	Use:   "fs",
	Short: "File system access on the device",
}

var fsDownloadCmd = &cobra.Command{
	Use:   "download REMOTE LOCAL",
	Short: "Download a file from the device ('-' writes stdout)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, local := args[0], args[1]

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		progress, finish := newProgress(remote)
		data, err := client.FsDownload(remote, progress)
		finish()
		if err != nil {
			return err
		}
		return writeOutputFile(local, remoteBasename(remote), data)
	},
}

var fsUploadCmd = &cobra.Command{
	Use:   "upload LOCAL REMOTE",
	Short: "Upload a file to the device ('-' reads stdin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		local, remote := args[0], args[1]

		data, base, err := readInputFile(local)
		if err != nil {
			return err
		}
		if strings.HasSuffix(remote, "/") {
			if base == "" {
				return fmt.Errorf("remote path %q needs a filename when reading stdin", remote)
			}
			remote += base
		}

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		progress, finish := newProgress(remote)
		defer finish()
		return client.FsUpload(remote, data, progress)
	},
}

var fsStatusCmd = &cobra.Command{
	Use:   "status NAME",
	Short: "Show status details about a file on the device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		length, err := client.FsStatus(args[0])
		if err != nil {
			return err
		}
		s := newSection(args[0])
		s.add("length", length)
		return s.print()
	},
}

var (
	fsChecksumOffset uint64
	fsChecksumLength int64
)

var fsChecksumCmd = &cobra.Command{
	Use:   "checksum NAME [ALGO]",
	Short: "Compute the checksum of a file on the device",
	Long: `Compute the checksum of a file on the device.

Without ALGO the device picks its default algorithm. See
'fs supported-checksums' for what the device offers.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		algo := ""
		if len(args) == 2 {
			algo = args[1]
		}
		var length *uint64
		if fsChecksumLength >= 0 {
			l := uint64(fsChecksumLength)
			length = &l
		}

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		sum, err := client.FsChecksum(name, algo, fsChecksumOffset, length)
		if err != nil {
			return err
		}

		if jsonOutput || verbose > 0 {
			s := newSection(name)
			s.add("checksum", sum.Output.Hex())
			s.add("type", sum.Type)
			s.add("data offset", sum.Off)
			s.add("data length", sum.Len)
			return s.print()
		}
		fmt.Printf("%s  %s\n", sum.Output.Hex(), name)
		return nil
	},
}

var fsSupportedChecksumsCmd = &cobra.Command{
	Use:   "supported-checksums",
	Short: "List the checksum algorithms the device offers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		types, err := client.FsSupportedChecksums()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(types))
		for name := range types {
			names = append(names, name)
		}
		sort.Strings(names)

		if jsonOutput || verbose > 0 {
			s := newSection("")
			for _, name := range names {
				props := types[name]
				sub := s.sub(name)
				sub.add("format", props.Format)
				sub.add("size", props.Size)
			}
			return s.print()
		}
		fmt.Println(strings.Join(names, ","))
		return nil
	},
}

var fsCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Close any file the management server holds open",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		return client.FsClose()
	},
}

func init() {
	fsChecksumCmd.Flags().Uint64Var(&fsChecksumOffset, "offset", 0, "How many bytes in the file to skip")
	fsChecksumCmd.Flags().Int64Var(&fsChecksumLength, "length", -1, "How many bytes to read; all if not given")

	fsCmd.AddCommand(fsDownloadCmd)
	fsCmd.AddCommand(fsUploadCmd)
	fsCmd.AddCommand(fsStatusCmd)
	fsCmd.AddCommand(fsChecksumCmd)
	fsCmd.AddCommand(fsSupportedChecksumsCmd)
	fsCmd.AddCommand(fsCloseCmd)
	rootCmd.AddCommand(fsCmd)
}
