// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package mcumgr

import (
	"fmt"

	"github.com/mveiten/gomcumgr/pkg/smp"
)

// cborLenExtra returns how many bytes a CBOR byte-string length header
// for n bytes needs beyond the single byte a short string uses.
func cborLenExtra(n int) int {
	switch {
	case n < 24:
		return 0
	case n <= 0xFF:
		return 1
	case n <= 0xFFFF:
		return 2
	default:
		return 4
	}
}

// chunkRoom computes how many data bytes fit into one upload chunk. The
// probe is the chunk request encoded with one data byte and worst-case
// scalar fields; the data byte is subtracted back out, leaving the
// envelope, and the byte-string length header is grown to match the
// resulting chunk size.
func chunkRoom(frameSize int, probe []byte) (int, error) {
	room := frameSize - smp.HeaderSize - (len(probe) - 1)
	if room > 0 {
		room -= cborLenExtra(room)
	}
	if room <= 0 {
		return 0, fmt.Errorf("%w: %d bytes cannot fit an upload chunk envelope of %d bytes",
			ErrFrameSizeTooSmall, frameSize, smp.HeaderSize+len(probe)-1)
	}
	return room, nil
}
