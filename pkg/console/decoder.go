// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package console

import (
	"encoding/base64"
	"encoding/binary"
)

// maxLineBuffer bounds a line while hunting for its newline. Devices
// never emit lines past MaxLineLength but noise on the wire might.
const maxLineBuffer = 512

// Stats counts decoder events since construction. Malformed input is
// dropped without surfacing errors to the byte feed, so these counters
// are the only way framing trouble shows up.
type Stats struct {
	Packets      uint64
	CRCErrors    uint64
	Base64Errors uint64
	DroppedLines uint64
}

// Decoder reassembles SMP messages from a console byte stream. Bytes
// outside marked lines are discarded, which lets the decoder share the
// UART with ordinary console output.
type Decoder struct {
	line    []byte
	inPkt   bool
	b64rem  []byte
	pkt     []byte
	stats   Stats
}

// NewDecoder creates a decoder in the hunting state.
func NewDecoder() *Decoder {
	return &Decoder{
		line: make([]byte, 0, MaxLineLength),
		pkt:  make([]byte, 0, 512),
	}
}

// Stats returns the event counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Feed processes a single received byte. When the byte completes a
// packet whose CRC verifies, the SMP message is returned; otherwise nil.
// Malformed lines and CRC failures drop the packet in progress and the
// decoder resynchronizes on the next start marker.
func (d *Decoder) Feed(b byte) []byte {
	if b != '\n' {
		if len(d.line) < maxLineBuffer {
			d.line = append(d.line, b)
		}
		return nil
	}

	line := d.line
	d.line = d.line[:0]

	if len(line) >= maxLineBuffer {
		d.dropPacket()
		d.stats.DroppedLines++
		return nil
	}
	if len(line) < 2 {
		d.dropPacket()
		return nil
	}

	switch {
	case line[0] == startMarker[0] && line[1] == startMarker[1]:
		d.resetPacket()
		d.inPkt = true
	case line[0] == contMarker[0] && line[1] == contMarker[1]:
		if !d.inPkt {
			d.stats.DroppedLines++
			return nil
		}
	default:
		// Ordinary console output interleaved with the protocol.
		d.dropPacket()
		return nil
	}

	return d.appendBody(line[2:])
}

// appendBody decodes a line's base64 body into the packet buffer and
// checks for completion.
func (d *Decoder) appendBody(body []byte) []byte {
	d.b64rem = append(d.b64rem, body...)

	// Decode whole base64 quartets; a trailing partial group waits for
	// the next line.
	n := len(d.b64rem) / 4 * 4
	if n > 0 {
		decoded := make([]byte, base64.StdEncoding.DecodedLen(n))
		m, err := base64.StdEncoding.Decode(decoded, d.b64rem[:n])
		if err != nil {
			d.dropPacket()
			d.stats.Base64Errors++
			return nil
		}
		d.pkt = append(d.pkt, decoded[:m]...)
		d.b64rem = d.b64rem[:copy(d.b64rem, d.b64rem[n:])]
	}

	if len(d.pkt) < lenPrefixSize {
		return nil
	}
	want := int(binary.BigEndian.Uint16(d.pkt[:lenPrefixSize])) + lenPrefixSize + crcSize
	if len(d.pkt) < want {
		return nil
	}
	if len(d.pkt) > want {
		d.dropPacket()
		d.stats.DroppedLines++
		return nil
	}

	// CRC over (length prefix || message || CRC) leaves a zero residue.
	if CalculateCRC(d.pkt) != 0 {
		d.dropPacket()
		d.stats.CRCErrors++
		return nil
	}

	msg := make([]byte, want-lenPrefixSize-crcSize)
	copy(msg, d.pkt[lenPrefixSize:want-crcSize])
	d.dropPacket()
	d.stats.Packets++
	return msg
}

func (d *Decoder) resetPacket() {
	d.pkt = d.pkt[:0]
	d.b64rem = d.b64rem[:0]
}

func (d *Decoder) dropPacket() {
	d.resetPacket()
	d.inPkt = false
}
