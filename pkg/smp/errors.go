// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package smp

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Management error codes devices report in response envelopes.
const (
	ErrCodeOK                 = 0
	ErrCodeUnknown            = 1
	ErrCodeNoMem              = 2
	ErrCodeInvalidValue       = 3
	ErrCodeTimeout            = 4
	ErrCodeNoEntry            = 5
	ErrCodeBadState           = 6
	ErrCodeMsgTooLong         = 7
	ErrCodeNotSupported       = 8
	ErrCodeCorruptPayload     = 9
	ErrCodeBusy               = 10
	ErrCodeAccessDenied       = 11
	ErrCodeProtocolTooOld     = 12
	ErrCodeProtocolTooNew     = 13
	ErrCodePerUserBase        = 256
)

var mgmtErrNames = map[int]string{
	ErrCodeOK:             "MGMT_ERR_EOK",
	ErrCodeUnknown:        "MGMT_ERR_EUNKNOWN",
	ErrCodeNoMem:          "MGMT_ERR_ENOMEM",
	ErrCodeInvalidValue:   "MGMT_ERR_EINVAL",
	ErrCodeTimeout:        "MGMT_ERR_ETIMEOUT",
	ErrCodeNoEntry:        "MGMT_ERR_ENOENT",
	ErrCodeBadState:       "MGMT_ERR_EBADSTATE",
	ErrCodeMsgTooLong:     "MGMT_ERR_EMSGSIZE",
	ErrCodeNotSupported:   "MGMT_ERR_ENOTSUP",
	ErrCodeCorruptPayload: "MGMT_ERR_ECORRUPT",
	ErrCodeBusy:           "MGMT_ERR_EBUSY",
	ErrCodeAccessDenied:   "MGMT_ERR_EACCESSDENIED",
	ErrCodeProtocolTooOld: "MGMT_ERR_UNSUPPORTED_TOO_OLD",
	ErrCodeProtocolTooNew: "MGMT_ERR_UNSUPPORTED_TOO_NEW",
}

// ErrName returns the symbolic MGMT_ERR_* name for a management error
// code, or a numeric fallback for codes outside the known table.
func ErrName(rc int) string {
	if name, ok := mgmtErrNames[rc]; ok {
		return name
	}
	if rc >= ErrCodePerUserBase {
		return fmt.Sprintf("MGMT_ERR_PERUSER(%d)", rc)
	}
	return fmt.Sprintf("MGMT_ERR(%d)", rc)
}

// DeviceError is a non-zero status reported by the device itself, as
// opposed to a transport or decoding failure on the host side.
type DeviceError struct {
	Group  Group
	RC     int
	Reason string
}

func (e *DeviceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("device error: %s (group %s): %s", ErrName(e.RC), e.Group, e.Reason)
	}
	return fmt.Sprintf("device error: %s (group %s)", ErrName(e.RC), e.Group)
}

// legacy v0/v1 envelope: a bare rc with an optional reason string
type rcEnvelope struct {
	RC     *int   `cbor:"rc"`
	Reason string `cbor:"rsn"`
}

// v2 envelope: an err map carrying the originating group
type errEnvelope struct {
	Err *struct {
		Group  uint16 `cbor:"group"`
		RC     int    `cbor:"rc"`
		Reason string `cbor:"rsn"`
	} `cbor:"err"`
}

// CheckResponse inspects a response payload for an error envelope before
// the caller decodes its typed schema. The group argument is the group the
// request was sent to; v2 envelopes carry their own group and override it.
// Returns nil when the payload reports success or carries no envelope.
func CheckResponse(group Group, payload []byte) error {
	var v2 errEnvelope
	if err := cbor.Unmarshal(payload, &v2); err == nil && v2.Err != nil {
		if v2.Err.RC == ErrCodeOK {
			return nil
		}
		return &DeviceError{Group: Group(v2.Err.Group), RC: v2.Err.RC, Reason: v2.Err.Reason}
	}

	var v1 rcEnvelope
	if err := cbor.Unmarshal(payload, &v1); err == nil && v1.RC != nil {
		if *v1.RC == ErrCodeOK {
			return nil
		}
		return &DeviceError{Group: group, RC: *v1.RC, Reason: v1.Reason}
	}

	return nil
}

// Errno is a POSIX-style error number returned by shell command execution.
type Errno int

var errnoNames = map[int]string{
	1:   "EPERM",
	2:   "ENOENT",
	3:   "ESRCH",
	4:   "EINTR",
	5:   "EIO",
	6:   "ENXIO",
	7:   "E2BIG",
	8:   "ENOEXEC",
	9:   "EBADF",
	10:  "ECHILD",
	11:  "EAGAIN",
	12:  "ENOMEM",
	13:  "EACCES",
	14:  "EFAULT",
	16:  "EBUSY",
	17:  "EEXIST",
	19:  "ENODEV",
	20:  "ENOTDIR",
	21:  "EISDIR",
	22:  "EINVAL",
	23:  "ENFILE",
	24:  "EMFILE",
	27:  "EFBIG",
	28:  "ENOSPC",
	29:  "ESPIPE",
	30:  "EROFS",
	32:  "EPIPE",
	34:  "ERANGE",
	35:  "EDEADLK",
	36:  "ENAMETOOLONG",
	38:  "ENOSYS",
	42:  "ENOMSG",
	110: "ETIMEDOUT",
	134: "ENOTSUP",
}

func (e Errno) String() string {
	n := int(e)
	if n < 0 {
		n = -n
	}
	if name, ok := errnoNames[n]; ok {
		return name
	}
	return fmt.Sprintf("errno(%d)", n)
}
