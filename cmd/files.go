// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// readInputFile reads a local file, or stdin when path is "-". The
// second return is the basename usable as a remote filename, empty for
// stdin.
func readInputFile(path string) ([]byte, string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return data, "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Base(path), nil
}

// writeOutputFile writes data to a local file, or stdout when path is
// "-". A path naming a directory gets the remote basename appended.
func writeOutputFile(path, remoteBase string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if remoteBase == "" {
			return fmt.Errorf("%s is a directory and the remote filename is unknown", path)
		}
		path = filepath.Join(path, remoteBase)
	}
	return os.WriteFile(path, data, 0o644)
}

// remoteBasename extracts the final path element of a remote path,
// empty when the path ends in a separator.
func remoteBasename(remote string) string {
	idx := strings.LastIndex(remote, "/")
	if idx < 0 {
		return remote
	}
	return remote[idx+1:]
}
