// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package console

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Encode frames an SMP message for the console: length prefix and CRC
// are attached, the result is base64 encoded and split into marked,
// newline-terminated lines. The returned bytes are written to the wire
// as-is.
func Encode(msg []byte) ([]byte, error) {
	if len(msg) > math.MaxUint16 {
		return nil, fmt.Errorf("console: message too large: %d bytes", len(msg))
	}

	pkt := make([]byte, 0, lenPrefixSize+len(msg)+crcSize)
	pkt = binary.BigEndian.AppendUint16(pkt, uint16(len(msg)))
	pkt = append(pkt, msg...)
	pkt = binary.BigEndian.AppendUint16(pkt, CalculateCRC(pkt))

	b64 := make([]byte, base64.StdEncoding.EncodedLen(len(pkt)))
	base64.StdEncoding.Encode(b64, pkt)

	var out bytes.Buffer
	for off := 0; off < len(b64); off += base64PerLine {
		end := off + base64PerLine
		if end > len(b64) {
			end = len(b64)
		}
		if off == 0 {
			out.Write(startMarker[:])
		} else {
			out.Write(contMarker[:])
		}
		out.Write(b64[off:end])
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}
