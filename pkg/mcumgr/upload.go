// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package mcumgr

import (
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/mveiten/gomcumgr/pkg/smp"
)

// ProgressFunc observes a transfer after each acknowledged chunk.
// Returning false cancels the transfer with ErrCancelled. Callbacks run
// with no engine locks held.
type ProgressFunc func(current, total uint64) bool

// report invokes a progress callback if one is set.
func report(progress ProgressFunc, current, total uint64) bool {
	if progress == nil {
		return true
	}
	return progress(current, total)
}

// ImageUpload streams a firmware image into the device's upload slot.
// The first chunk announces total length, the image SHA-256 and the
// image number so the device can resume or short-circuit an identical
// upload; subsequent chunks carry offset and data only. The device may
// answer the first chunk with its own offset (up to the total) to resume
// a partial upload, and the host continues from there; any later offset
// other than the end of the chunk just sent fails with ErrProtocol.
func (c *Client) ImageUpload(image uint32, data []byte, upgrade bool, progress ProgressFunc) error {
	sha := sha256.Sum256(data)
	total := uint64(len(data))

	probe, err := smp.EncodeCBOR(smp.ImageUploadRequest{
		Image:   image,
		Off:     math.MaxUint32,
		Data:    []byte{0},
		Len:     &total,
		SHA:     sha[:],
		Upgrade: upgrade,
	})
	if err != nil {
		return err
	}

	return c.streamUpload(smp.GroupImage, smp.CmdImageUpload, data, probe, progress,
		func(off uint64, chunk []byte, first bool) any {
			req := smp.ImageUploadRequest{Off: off, Data: chunk}
			if first {
				req.Image = image
				req.Len = &total
				req.SHA = sha[:]
				req.Upgrade = upgrade
			}
			return req
		})
}

// FsUpload streams data into a file on the device.
func (c *Client) FsUpload(name string, data []byte, progress ProgressFunc) error {
	total := uint64(len(data))

	probe, err := smp.EncodeCBOR(smp.FileUploadRequest{
		Name: name,
		Off:  math.MaxUint32,
		Data: []byte{0},
		Len:  &total,
	})
	if err != nil {
		return err
	}

	return c.streamUpload(smp.GroupFS, smp.CmdFSFile, data, probe, progress,
		func(off uint64, chunk []byte, first bool) any {
			req := smp.FileUploadRequest{Name: name, Off: off, Data: chunk}
			if first {
				req.Len = &total
			}
			return req
		})
}

// streamUpload drives the chunked upload loop shared by the image and
// fs groups. The chunk size is computed once from the probe encoding,
// which carries worst-case scalar fields.
func (c *Client) streamUpload(group smp.Group, command uint8, data []byte, probe []byte,
	progress ProgressFunc, makeReq func(off uint64, chunk []byte, first bool) any) error {

	room, err := chunkRoom(c.eng.FrameSize(), probe)
	if err != nil {
		return err
	}

	total := uint64(len(data))

	var off uint64
	first := true
	for first || off < total {
		n := uint64(room)
		if off+n > total {
			n = total - off
		}
		rsp, err := transact[smp.UploadResponse](c, smp.OpWrite, group, command,
			makeReq(off, data[off:off+n], first))
		if err != nil {
			return err
		}

		switch {
		case rsp.Off == off+n:
			off = rsp.Off
		case first && rsp.Off <= total:
			// The device already holds a partial upload and answers the
			// first chunk with where to resume.
			c.log.WithField("off", rsp.Off).Debug("device resumed upload at its own offset")
			off = rsp.Off
		default:
			return fmt.Errorf("%w: device reported upload offset %d (sent %d..%d of %d)",
				ErrProtocol, rsp.Off, off, off+n, total)
		}
		first = false

		if !report(progress, off, total) {
			return ErrCancelled
		}
	}
	return nil
}

// FsDownload streams a file off the device. The first response must
// carry the total length; later responses carry data at the requested
// offset.
func (c *Client) FsDownload(name string, progress ProgressFunc) ([]byte, error) {
	var out []byte
	var total uint64
	var off uint64

	for {
		rsp, err := transact[smp.FileDownloadResponse](c, smp.OpRead, smp.GroupFS, smp.CmdFSFile,
			smp.FileDownloadRequest{Name: name, Off: off})
		if err != nil {
			return nil, err
		}
		if off == 0 {
			if rsp.Len == nil {
				return nil, fmt.Errorf("%w: first download response carries no length", ErrProtocol)
			}
			total = *rsp.Len
			out = make([]byte, 0, total)
		}
		if rsp.Off != off {
			return nil, fmt.Errorf("%w: requested offset %d, device answered %d", ErrProtocol, off, rsp.Off)
		}
		out = append(out, rsp.Data...)
		off += uint64(len(rsp.Data))

		if !report(progress, off, total) {
			return nil, ErrCancelled
		}
		if off >= total {
			return out, nil
		}
		if len(rsp.Data) == 0 {
			return nil, fmt.Errorf("%w: empty chunk at offset %d before end of file", ErrProtocol, off)
		}
	}
}
