// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package mcumgr

import "errors"

var (
	// ErrTimeout means the device did not answer within the configured
	// per-request timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrDisconnected means the transport reached EOF or failed while a
	// request was outstanding.
	ErrDisconnected = errors.New("transport disconnected")

	// ErrCancelled means a progress callback asked to stop a transfer.
	ErrCancelled = errors.New("transfer cancelled")

	// ErrProtocol means the device answered with something the protocol
	// does not allow at this point, such as an upload offset other than
	// the end of the chunk just sent after the first response.
	ErrProtocol = errors.New("protocol violation")

	// ErrFrameSizeTooSmall means the configured frame size cannot fit a
	// single data byte after the chunk envelope.
	ErrFrameSizeTooSmall = errors.New("frame size too small")
)
