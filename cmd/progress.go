// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/mveiten/gomcumgr/pkg/mcumgr"
)

// humanBytes renders a byte count with a decimal unit prefix.
func humanBytes(n uint64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1f GB", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1f MB", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1f kB", float64(n)/1e3)
	}
	return fmt.Sprintf("%d B", n)
}

// newProgress builds a progress callback rendering transfer state on
// stderr, and a finish function terminating the line. Rendering is
// suppressed when --quiet is set or stderr is not a terminal.
func newProgress(label string) (mcumgr.ProgressFunc, func()) {
	if quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil, func() {}
	}

	drawn := false
	cb := func(current, total uint64) bool {
		pct := 100.0
		if total > 0 {
			pct = float64(current) / float64(total) * 100
		}
		fmt.Fprintf(os.Stderr, "\r%s  %s / %s (%.0f%%)   ",
			label, humanBytes(current), humanBytes(total), pct)
		drawn = true
		return true
	}
	finish := func() {
		if drawn {
			fmt.Fprintln(os.Stderr)
		}
	}
	return cb, finish
}
