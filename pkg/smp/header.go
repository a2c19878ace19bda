// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

// Package smp implements the Simple Management Protocol (SMP) message
// layer used by MCUmgr-enabled devices: the 8-byte header codec, CBOR
// payload helpers, the typed request/response schemas for the management
// groups, and the error envelopes devices answer with.
package smp

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of an SMP header in bytes.
const HeaderSize = 8

// Op is the operation code carried in the low bits of the first header byte.
type Op uint8

// Operation codes
const (
	OpRead         Op = 0
	OpReadResponse Op = 1
	OpWrite        Op = 2
	OpWriteResponse Op = 3
)

// Group identifies a management command group.
type Group uint16

// Management groups
const (
	GroupOS          Group = 0
	GroupImage       Group = 1
	GroupStat        Group = 2
	GroupConfig      Group = 3
	GroupLog         Group = 4
	GroupCrash       Group = 5
	GroupSplit       Group = 6
	GroupRun         Group = 7
	GroupFS          Group = 8
	GroupShell       Group = 9
	GroupZephyrBasic Group = 63
)

// Command IDs - OS group
const (
	CmdOSEcho             = 0
	CmdOSTaskStats        = 2
	CmdOSMemoryPoolStats  = 3
	CmdOSDateTime         = 4
	CmdOSReset            = 5
	CmdOSMcumgrParameters = 6
	CmdOSAppInfo          = 7
	CmdOSBootloaderInfo   = 8
)

// Command IDs - Image group
const (
	CmdImageState    = 0
	CmdImageUpload   = 1
	CmdImageErase    = 5
	CmdImageSlotInfo = 6
)

// Command IDs - FS group
const (
	CmdFSFile               = 0
	CmdFSStatus             = 1
	CmdFSChecksum           = 2
	CmdFSSupportedChecksums = 3
	CmdFSClose              = 4
)

// Command IDs - Shell group
const (
	CmdShellExec = 0
)

// Command IDs - Zephyr basic group
const (
	CmdZephyrEraseStorage = 0
)

// Header is the 8-byte frame header preceding every CBOR payload.
type Header struct {
	Op      Op
	Version uint8
	Flags   uint8
	Length  uint16
	Group   Group
	Seq     uint8
	Command uint8
}

// maxVersion is the largest protocol version the 2-bit field can carry.
const maxVersion = 3

// EncodeHeader serializes a header into its 8-byte wire form.
func EncodeHeader(h Header) ([]byte, error) {
	if h.Version > maxVersion {
		return nil, fmt.Errorf("smp: version %d out of range (max %d)", h.Version, maxVersion)
	}
	if h.Op > OpWriteResponse {
		return nil, fmt.Errorf("smp: operation %d out of range", h.Op)
	}
	buf := make([]byte, HeaderSize)
	buf[0] = h.Version<<3 | uint8(h.Op)
	buf[1] = h.Flags
	binary.BigEndian.PutUint16(buf[2:4], h.Length)
	binary.BigEndian.PutUint16(buf[4:6], uint16(h.Group))
	buf[6] = h.Seq
	buf[7] = h.Command
	return buf, nil
}

// DecodeHeader parses the first 8 bytes of data as an SMP header.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("smp: header truncated: %d bytes", len(data))
	}
	return Header{
		Op:      Op(data[0] & 0x07),
		Version: data[0] >> 3 & 0x03,
		Flags:   data[1],
		Length:  binary.BigEndian.Uint16(data[2:4]),
		Group:   Group(binary.BigEndian.Uint16(data[4:6])),
		Seq:     data[6],
		Command: data[7],
	}, nil
}

// ResponseOp returns the response operation matching a request operation.
func ResponseOp(req Op) Op {
	switch req {
	case OpRead:
		return OpReadResponse
	case OpWrite:
		return OpWriteResponse
	default:
		return req
	}
}

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpReadResponse:
		return "read-rsp"
	case OpWrite:
		return "write"
	case OpWriteResponse:
		return "write-rsp"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

func (g Group) String() string {
	switch g {
	case GroupOS:
		return "os"
	case GroupImage:
		return "image"
	case GroupStat:
		return "stat"
	case GroupConfig:
		return "config"
	case GroupLog:
		return "log"
	case GroupCrash:
		return "crash"
	case GroupSplit:
		return "split"
	case GroupRun:
		return "run"
	case GroupFS:
		return "fs"
	case GroupShell:
		return "shell"
	case GroupZephyrBasic:
		return "zephyr-basic"
	}
	return fmt.Sprintf("group(%d)", uint16(g))
}
