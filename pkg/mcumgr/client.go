// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package mcumgr

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mveiten/gomcumgr/pkg/smp"
)

// Client exposes one method per management operation on top of an
// Engine. Methods are safe for concurrent use; the engine serializes
// the underlying request/response cycles.
type Client struct {
	eng     *Engine
	log     *logrus.Logger
	version uint8
}

// NewClient builds a client over an open transport. A nil logger uses
// the standard one.
func NewClient(tr Transport, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		eng:     NewEngine(tr, log),
		log:     log,
		version: 1,
	}
}

// NewSerialClient opens a serial port and builds a client on it.
func NewSerialClient(portName string, baudRate int, log *logrus.Logger) (*Client, error) {
	tr, err := OpenSerial(portName, baudRate)
	if err != nil {
		return nil, err
	}
	return NewClient(tr, log), nil
}

// NewUSBSerialClient resolves a VID:PID[:index] selector and builds a
// client on the matching port.
func NewUSBSerialClient(selector string, baudRate int, log *logrus.Logger) (*Client, error) {
	tr, err := OpenUSBSerial(selector, baudRate)
	if err != nil {
		return nil, err
	}
	return NewClient(tr, log), nil
}

// NewWebSocketClient dials a gateway and builds a client on it.
func NewWebSocketClient(wsURL string, skipTLSVerify bool, log *logrus.Logger) (*Client, error) {
	tr, err := OpenWebSocket(wsURL, skipTLSVerify)
	if err != nil {
		return nil, err
	}
	return NewClient(tr, log), nil
}

// Close shuts down the underlying transport.
func (c *Client) Close() error {
	return c.eng.Close()
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.eng.SetTimeout(d)
}

// SetFrameSize changes the maximum SMP message size.
func (c *Client) SetFrameSize(n int) error {
	return c.eng.SetFrameSize(n)
}

// FrameSize returns the current maximum SMP message size.
func (c *Client) FrameSize() int {
	return c.eng.FrameSize()
}

// SetVersion selects the SMP protocol version sent in request headers.
func (c *Client) SetVersion(v uint8) error {
	if v > 3 {
		return fmt.Errorf("invalid SMP version %d", v)
	}
	c.version = v
	return nil
}

// transact runs one typed request/response cycle: encode, exchange,
// check the error envelope, decode.
func transact[Resp any](c *Client, op smp.Op, group smp.Group, command uint8, req any) (Resp, error) {
	var zero Resp
	body, err := smp.EncodeCBOR(req)
	if err != nil {
		return zero, err
	}
	payload, err := c.eng.Transact(op, c.version, group, command, body)
	if err != nil {
		return zero, err
	}
	if err := smp.CheckResponse(group, payload); err != nil {
		return zero, err
	}
	return smp.DecodeCBOR[Resp](payload)
}

// RawCommand sends an arbitrary request and returns the raw CBOR
// response payload after the error envelope check.
func (c *Client) RawCommand(op smp.Op, group smp.Group, command uint8, payload []byte) ([]byte, error) {
	if payload == nil {
		payload = []byte{0xA0} // empty map
	}
	rsp, err := c.eng.Transact(op, c.version, group, command, payload)
	if err != nil {
		return nil, err
	}
	if err := smp.CheckResponse(group, rsp); err != nil {
		return nil, err
	}
	return rsp, nil
}

// OS group

// Echo sends a string and returns what the device echoes back.
func (c *Client) Echo(s string) (string, error) {
	rsp, err := transact[smp.EchoResponse](c, smp.OpWrite, smp.GroupOS, smp.CmdOSEcho, smp.EchoRequest{D: s})
	if err != nil {
		return "", err
	}
	return rsp.R, nil
}

// CheckConnection verifies the device answers management requests by
// running an echo round-trip.
func (c *Client) CheckConnection() error {
	const probe = "gomcumgr"
	r, err := c.Echo(probe)
	if err != nil {
		return err
	}
	if r != probe {
		return fmt.Errorf("%w: echo returned %q", ErrProtocol, r)
	}
	return nil
}

// TaskStats returns per-task statistics keyed by task name.
func (c *Client) TaskStats() (map[string]smp.TaskStat, error) {
	rsp, err := transact[smp.TaskStatsResponse](c, smp.OpRead, smp.GroupOS, smp.CmdOSTaskStats, struct{}{})
	if err != nil {
		return nil, err
	}
	return rsp.Tasks, nil
}

// MemoryPoolStats returns per-pool statistics keyed by pool name.
func (c *Client) MemoryPoolStats() (map[string]smp.MemoryPoolStat, error) {
	rsp, err := transact[smp.MemoryPoolStatsResponse](c, smp.OpRead, smp.GroupOS, smp.CmdOSMemoryPoolStats, struct{}{})
	if err != nil {
		return nil, err
	}
	return rsp.Pools, nil
}

// DateTimeGet reads the device clock.
func (c *Client) DateTimeGet() (time.Time, error) {
	rsp, err := transact[smp.DateTimeResponse](c, smp.OpRead, smp.GroupOS, smp.CmdOSDateTime, struct{}{})
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, rsp.DateTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("device returned unparseable datetime %q: %w", rsp.DateTime, err)
	}
	return t, nil
}

// DateTimeSet sets the device clock.
func (c *Client) DateTimeSet(t time.Time) error {
	_, err := transact[struct{}](c, smp.OpWrite, smp.GroupOS, smp.CmdOSDateTime,
		smp.DateTimeSetRequest{DateTime: t.Format(time.RFC3339)})
	return err
}

// Reset reboots the device. Force overrides an application veto. A
// device that reboots before answering produces a timeout, which is
// treated as success.
func (c *Client) Reset(force bool) error {
	_, err := transact[struct{}](c, smp.OpWrite, smp.GroupOS, smp.CmdOSReset, smp.ResetRequest{Force: force})
	if errors.Is(err, ErrTimeout) {
		c.log.Debug("no reset response; device likely rebooted already")
		return nil
	}
	return err
}

// McumgrParameters reads the device-side SMP buffer geometry.
func (c *Client) McumgrParameters() (smp.McumgrParametersResponse, error) {
	return transact[smp.McumgrParametersResponse](c, smp.OpRead, smp.GroupOS, smp.CmdOSMcumgrParameters, struct{}{})
}

// UseAutoFrameSize queries the device's buffer size and adopts it as
// the frame size. Returns the adopted size.
func (c *Client) UseAutoFrameSize() (int, error) {
	params, err := c.McumgrParameters()
	if err != nil {
		return 0, err
	}
	if err := c.eng.SetFrameSize(int(params.BufSize)); err != nil {
		return 0, err
	}
	return int(params.BufSize), nil
}

// AppInfo queries application info with an optional printf-style format.
func (c *Client) AppInfo(format string) (string, error) {
	rsp, err := transact[smp.AppInfoResponse](c, smp.OpRead, smp.GroupOS, smp.CmdOSAppInfo,
		smp.AppInfoRequest{Format: format})
	if err != nil {
		return "", err
	}
	return rsp.Output, nil
}

// BootloaderInfo queries the bootloader. An empty query returns the
// bootloader name; "mode" returns MCUboot mode details.
func (c *Client) BootloaderInfo(query string) (smp.BootloaderInfoResponse, error) {
	return transact[smp.BootloaderInfoResponse](c, smp.OpRead, smp.GroupOS, smp.CmdOSBootloaderInfo,
		smp.BootloaderInfoRequest{Query: query})
}

// Image group

// ImageState lists the device's firmware slots.
func (c *Client) ImageState() (smp.ImageStateResponse, error) {
	return transact[smp.ImageStateResponse](c, smp.OpRead, smp.GroupImage, smp.CmdImageState, struct{}{})
}

// ImageTest marks the image with the given hash to run on next boot.
func (c *Client) ImageTest(hash []byte) (smp.ImageStateResponse, error) {
	return transact[smp.ImageStateResponse](c, smp.OpWrite, smp.GroupImage, smp.CmdImageState,
		smp.ImageStateWriteRequest{Hash: hash, Confirm: false})
}

// ImageConfirm makes an image permanent. A nil hash confirms the
// currently running image.
func (c *Client) ImageConfirm(hash []byte) (smp.ImageStateResponse, error) {
	return transact[smp.ImageStateResponse](c, smp.OpWrite, smp.GroupImage, smp.CmdImageState,
		smp.ImageStateWriteRequest{Hash: hash, Confirm: true})
}

// ImageErase erases a firmware slot. A nil slot erases the inactive one.
func (c *Client) ImageErase(slot *uint32) error {
	_, err := transact[struct{}](c, smp.OpWrite, smp.GroupImage, smp.CmdImageErase,
		smp.ImageEraseRequest{Slot: slot})
	return err
}

// SlotInfo lists slot geometry per image.
func (c *Client) SlotInfo() (smp.SlotInfoResponse, error) {
	return transact[smp.SlotInfoResponse](c, smp.OpRead, smp.GroupImage, smp.CmdImageSlotInfo, struct{}{})
}

// FS group

// FsStatus reports the length of a file on the device.
func (c *Client) FsStatus(name string) (uint64, error) {
	rsp, err := transact[smp.FileStatusResponse](c, smp.OpRead, smp.GroupFS, smp.CmdFSStatus,
		smp.FileStatusRequest{Name: name})
	if err != nil {
		return 0, err
	}
	return rsp.Len, nil
}

// FsChecksum asks the device to hash a file region. Empty algo selects
// the device default; nil length reads to the end of the file.
func (c *Client) FsChecksum(name, algo string, off uint64, length *uint64) (smp.FileChecksumResponse, error) {
	return transact[smp.FileChecksumResponse](c, smp.OpRead, smp.GroupFS, smp.CmdFSChecksum,
		smp.FileChecksumRequest{Name: name, Type: algo, Off: off, Len: length})
}

// FsSupportedChecksums lists the checksum algorithms the device offers.
func (c *Client) FsSupportedChecksums() (map[string]smp.ChecksumProperties, error) {
	rsp, err := transact[smp.SupportedChecksumsResponse](c, smp.OpRead, smp.GroupFS, smp.CmdFSSupportedChecksums, struct{}{})
	if err != nil {
		return nil, err
	}
	return rsp.Types, nil
}

// FsClose closes any file the management server holds open.
func (c *Client) FsClose() error {
	_, err := transact[struct{}](c, smp.OpWrite, smp.GroupFS, smp.CmdFSClose, smp.FileCloseRequest{})
	return err
}

// Shell group

// ShellExec runs a command line on the device shell and returns its
// captured output and return value. Negative return values are POSIX
// errnos; see smp.Errno.
func (c *Client) ShellExec(argv []string) (string, int, error) {
	rsp, err := transact[smp.ShellExecResponse](c, smp.OpWrite, smp.GroupShell, smp.CmdShellExec,
		smp.ShellExecRequest{Argv: argv})
	if err != nil {
		return "", 0, err
	}
	ret := 0
	if rsp.Ret != nil {
		ret = *rsp.Ret
	}
	return rsp.Output, ret, nil
}

// Zephyr basic group

// EraseStorage erases the storage partition.
func (c *Client) EraseStorage() error {
	_, err := transact[struct{}](c, smp.OpWrite, smp.GroupZephyrBasic, smp.CmdZephyrEraseStorage,
		smp.EraseStorageRequest{})
	return err
}

// matchesHash returns the first listed slot that carries the hash, or nil.
func matchesHash(state smp.ImageStateResponse, hash []byte) *smp.ImageStateEntry {
	for i := range state.Images {
		if bytes.Equal(state.Images[i].Hash, hash) {
			return &state.Images[i]
		}
	}
	return nil
}
