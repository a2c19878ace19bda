// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

// Package mcuboot parses MCUboot firmware image binaries: the fixed
// header, the TLV trailer with its protected and unprotected regions,
// and the image hash and signature entries found there.
package mcuboot

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// Image header magic.
const HeaderMagic = 0x96f3b83d

// TLV info magics.
const (
	TLVInfoMagic          = 0x6907
	TLVProtectedInfoMagic = 0x6908
)

// TLV entry types.
const (
	TLVKeyHash  = 0x01
	TLVSHA256   = 0x10
	TLVRSA2048  = 0x20
	TLVECDSASig = 0x22
	TLVRSA3072  = 0x23
	TLVED25519  = 0x24
)

// Parse errors.
var (
	ErrBadMagic     = errors.New("mcuboot: bad image magic")
	ErrTruncated    = errors.New("mcuboot: image truncated")
	ErrMalformedTLV = errors.New("mcuboot: malformed TLV trailer")
)

// Version is the image version from the header.
type Version struct {
	Major    uint8
	Minor    uint8
	Revision uint16
	Build    uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Header is the fixed 32-byte image header, little-endian on the wire.
type Header struct {
	Magic            uint32
	LoadAddr         uint32
	HdrSize          uint16
	ProtectedTLVSize uint16
	ImgSize          uint32
	Flags            uint32
	Version          Version
	Pad              uint32
}

// headerSize is the encoded size of Header.
const headerSize = 32

// TLV is one type-length-value entry from the image trailer.
type TLV struct {
	Type      uint16
	Value     []byte
	Protected bool
}

// Image is a parsed MCUboot image.
type Image struct {
	Header Header
	Body   []byte
	TLVs   []TLV
}

type tlvInfo struct {
	Magic uint16
	Total uint16
}

type tlvHeader struct {
	Type uint16
	Len  uint16
}

// Parse reads an MCUboot image from data. Unknown TLV types are kept
// but not interpreted.
func Parse(data []byte) (*Image, error) {
	r := bytes.NewReader(data)

	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncated, len(data), headerSize)
	}
	if hdr.Magic != HeaderMagic {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, hdr.Magic)
	}

	bodyStart := uint64(hdr.HdrSize)
	bodyEnd := bodyStart + uint64(hdr.ImgSize)
	if bodyEnd > uint64(len(data)) {
		return nil, fmt.Errorf("%w: header says body ends at %d, have %d bytes", ErrTruncated, bodyEnd, len(data))
	}

	img := &Image{
		Header: hdr,
		Body:   data[bodyStart:bodyEnd],
	}

	off := bodyEnd
	// A protected TLV region precedes the unprotected one when the
	// header announces it.
	if hdr.ProtectedTLVSize > 0 {
		n, err := img.parseTLVRegion(data, off, TLVProtectedInfoMagic)
		if err != nil {
			return nil, err
		}
		off += n
	}
	if off < uint64(len(data)) {
		if _, err := img.parseTLVRegion(data, off, TLVInfoMagic); err != nil {
			return nil, err
		}
	}

	return img, nil
}

// parseTLVRegion parses one TLV region starting at off and returns its
// total size including the info header.
func (img *Image) parseTLVRegion(data []byte, off uint64, wantMagic uint16) (uint64, error) {
	r := bytes.NewReader(data[off:])

	var info tlvInfo
	if err := binary.Read(r, binary.LittleEndian, &info); err != nil {
		return 0, fmt.Errorf("%w: no room for TLV info at offset %d", ErrMalformedTLV, off)
	}
	if info.Magic != wantMagic {
		return 0, fmt.Errorf("%w: TLV info magic 0x%04x at offset %d", ErrMalformedTLV, info.Magic, off)
	}
	if off+uint64(info.Total) > uint64(len(data)) {
		return 0, fmt.Errorf("%w: TLV region of %d bytes exceeds image", ErrMalformedTLV, info.Total)
	}

	protected := wantMagic == TLVProtectedInfoMagic
	pos := uint64(4)
	for pos < uint64(info.Total) {
		var th tlvHeader
		if err := binary.Read(r, binary.LittleEndian, &th); err != nil {
			return 0, fmt.Errorf("%w: truncated TLV header at offset %d", ErrMalformedTLV, off+pos)
		}
		pos += 4
		if pos+uint64(th.Len) > uint64(info.Total) {
			return 0, fmt.Errorf("%w: TLV value of %d bytes overruns region", ErrMalformedTLV, th.Len)
		}
		value := make([]byte, th.Len)
		if _, err := r.Read(value); err != nil {
			return 0, fmt.Errorf("%w: truncated TLV value", ErrMalformedTLV)
		}
		pos += uint64(th.Len)
		img.TLVs = append(img.TLVs, TLV{Type: th.Type, Value: value, Protected: protected})
	}

	return uint64(info.Total), nil
}

// FindTLV returns the first TLV of the given type, or nil.
func (img *Image) FindTLV(tlvType uint16) *TLV {
	for i := range img.TLVs {
		if img.TLVs[i].Type == tlvType {
			return &img.TLVs[i]
		}
	}
	return nil
}

// Hash returns the SHA-256 TLV value, the hash the image state and
// upload commands identify images by.
func (img *Image) Hash() ([]byte, error) {
	tlv := img.FindTLV(TLVSHA256)
	if tlv == nil {
		return nil, fmt.Errorf("%w: no SHA256 TLV", ErrMalformedTLV)
	}
	return tlv.Value, nil
}

// VersionWithHash renders "major.minor.revision-hhhhhhhh" with the
// first four hash bytes, the form listings show.
func (img *Image) VersionWithHash() string {
	hash, err := img.Hash()
	if err != nil || len(hash) < 4 {
		return img.Header.Version.String()
	}
	return fmt.Sprintf("%s-%s", img.Header.Version, hex.EncodeToString(hash[:4]))
}
