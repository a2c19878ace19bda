// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package smp

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// FileDownloadRequest requests a chunk of a file starting at Off.
type FileDownloadRequest struct {
	Name string `cbor:"name"`
	Off  uint64 `cbor:"off"`
}

// FileDownloadResponse carries a chunk of file data. Len is present in
// the first response only and gives the total file size.
type FileDownloadResponse struct {
	Off  uint64  `cbor:"off"`
	Data []byte  `cbor:"data"`
	Len  *uint64 `cbor:"len,omitempty"`
}

// FileUploadRequest carries one chunk of a file upload. Len is sent in
// the first chunk only.
type FileUploadRequest struct {
	Name string  `cbor:"name"`
	Off  uint64  `cbor:"off"`
	Data []byte  `cbor:"data"`
	Len  *uint64 `cbor:"len,omitempty"`
}

// FileStatusRequest queries metadata for a file on the device.
type FileStatusRequest struct {
	Name string `cbor:"name"`
}

// FileStatusResponse reports the file length.
type FileStatusResponse struct {
	Len uint64 `cbor:"len"`
}

// FileChecksumRequest asks the device to hash a file region. Type names
// the algorithm; empty selects the device default. Len nil reads to EOF.
type FileChecksumRequest struct {
	Name string  `cbor:"name"`
	Type string  `cbor:"type,omitempty"`
	Off  uint64  `cbor:"off,omitempty"`
	Len  *uint64 `cbor:"len,omitempty"`
}

// ChecksumOutput holds a checksum result, which devices encode either as
// an unsigned integer (crc32) or a byte string (sha256).
type ChecksumOutput struct {
	Bytes []byte
	Value uint64
	IsInt bool
}

// UnmarshalCBOR accepts both integer and byte-string encodings.
func (c *ChecksumOutput) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err == nil {
		c.Bytes = b
		c.IsInt = false
		return nil
	}
	var v uint64
	if err := cbor.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("smp: checksum output is neither bytes nor integer: %w", err)
	}
	c.Value = v
	c.IsInt = true
	return nil
}

// Hex renders the checksum as lowercase hex.
func (c ChecksumOutput) Hex() string {
	if c.IsInt {
		return fmt.Sprintf("%08x", c.Value)
	}
	return hex.EncodeToString(c.Bytes)
}

// FileChecksumResponse reports the checksum of the requested region.
type FileChecksumResponse struct {
	Type   string         `cbor:"type"`
	Off    uint64         `cbor:"off,omitempty"`
	Len    uint64         `cbor:"len"`
	Output ChecksumOutput `cbor:"output"`
}

// ChecksumProperties describes one supported checksum algorithm.
// Format 0 means an integer result, 1 a byte string.
type ChecksumProperties struct {
	Format int `cbor:"format"`
	Size   int `cbor:"size"`
}

// SupportedChecksumsResponse maps algorithm names to their properties.
type SupportedChecksumsResponse struct {
	Types map[string]ChecksumProperties `cbor:"types"`
}

// FileCloseRequest closes any file the management server holds open.
type FileCloseRequest struct{}
