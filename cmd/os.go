// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/mveiten/gomcumgr/pkg/smp"
)

var osCmd = &cobra.Command{
	Use:   "os",
	Short: "OS management: echo, stats, clock, reset, device info",
}

var osEchoCmd = &cobra.Command{
	Use:   "echo TEXT",
	Short: "Echo a string off the device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		r, err := client.Echo(args[0])
		if err != nil {
			return err
		}
		return printResult(map[string]string{"r": r}, func() {
			fmt.Println(r)
		})
	},
}

var osTaskStatsCmd = &cobra.Command{
	Use:   "task-stats",
	Short: "Show per-task statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		tasks, err := client.TaskStats()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(tasks))
		for name := range tasks {
			names = append(names, name)
		}
		sort.Strings(names)

		s := newSection("")
		for _, name := range names {
			t := tasks[name]
			sub := s.sub(name)
			sub.add("priority", t.Priority)
			sub.add("tid", t.TaskID)
			sub.add("state", t.State)
			sub.add("stack use", t.StackUse)
			sub.add("stack size", t.StackSize)
			sub.add("context switches", t.Switches)
			sub.add("runtime", t.Runtime)
		}
		return s.print()
	},
}

var osMpoolStatsCmd = &cobra.Command{
	Use:   "mpool-stats",
	Short: "Show memory pool statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		pools, err := client.MemoryPoolStats()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(pools))
		for name := range pools {
			names = append(names, name)
		}
		sort.Strings(names)

		s := newSection("")
		for _, name := range names {
			p := pools[name]
			sub := s.sub(name)
			sub.add("block size", p.BlockSize)
			sub.add("blocks", p.Blocks)
			sub.add("free", p.Free)
			sub.add("min free", p.Min)
		}
		return s.print()
	},
}

var osDatetimeCmd = &cobra.Command{
	Use:   "datetime [RFC3339]",
	Short: "Read the device clock, or set it from an RFC 3339 timestamp",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if len(args) == 1 {
			var t time.Time
			if args[0] == "now" {
				t = time.Now()
			} else {
				t, err = time.Parse(time.RFC3339, args[0])
				if err != nil {
					return fmt.Errorf("invalid timestamp %q (want RFC 3339 or \"now\"): %w", args[0], err)
				}
			}
			return client.DateTimeSet(t)
		}

		t, err := client.DateTimeGet()
		if err != nil {
			return err
		}
		return printResult(map[string]string{"datetime": t.Format(time.RFC3339)}, func() {
			fmt.Println(t.Format(time.RFC3339))
		})
	},
}

var osResetForce bool

var osResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reboot the device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		return client.Reset(osResetForce)
	},
}

var osParamsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the device's SMP buffer parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		params, err := client.McumgrParameters()
		if err != nil {
			return err
		}
		s := newSection("")
		s.add("buffer size", params.BufSize)
		s.add("buffer count", params.BufCount)
		return s.print()
	},
}

var osAppInfoCmd = &cobra.Command{
	Use:   "app-info [FORMAT]",
	Short: "Show application info, optionally with a format string",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		format := ""
		if len(args) == 1 {
			format = args[0]
		}
		out, err := client.AppInfo(format)
		if err != nil {
			return err
		}
		return printResult(map[string]string{"output": out}, func() {
			fmt.Println(out)
		})
	},
}

var osBootloaderInfoCmd = &cobra.Command{
	Use:   "bootloader-info [QUERY]",
	Short: "Show bootloader name, or details for a query such as \"mode\"",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		info, err := client.BootloaderInfo(query)
		if err != nil {
			return err
		}

		s := newSection("")
		s.add("bootloader", info.Bootloader)
		if info.Mode != nil {
			s.add("mode", fmt.Sprintf("%d (%s)", *info.Mode, smp.McubootModeName(*info.Mode)))
			s.add("no downgrade", info.NoDowngrade)
		}
		return s.print()
	},
}

var osCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the device answers management requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.CheckConnection(); err != nil {
			return err
		}
		if !quiet {
			fmt.Println("ok")
		}
		return nil
	},
}

func init() {
	osResetCmd.Flags().BoolVar(&osResetForce, "force", false, "Reset even if the application objects")

	osCmd.AddCommand(osEchoCmd)
	osCmd.AddCommand(osTaskStatsCmd)
	osCmd.AddCommand(osMpoolStatsCmd)
	osCmd.AddCommand(osDatetimeCmd)
	osCmd.AddCommand(osResetCmd)
	osCmd.AddCommand(osParamsCmd)
	osCmd.AddCommand(osAppInfoCmd)
	osCmd.AddCommand(osBootloaderInfoCmd)
	osCmd.AddCommand(osCheckCmd)
	rootCmd.AddCommand(osCmd)
}
