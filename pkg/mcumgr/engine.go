// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package mcumgr

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mveiten/gomcumgr/pkg/console"
	"github.com/mveiten/gomcumgr/pkg/smp"
)

// Defaults for a fresh engine.
const (
	DefaultTimeout   = 2000 * time.Millisecond
	DefaultFrameSize = 384
)

// minFrameSize leaves room for the SMP header and a non-empty payload.
const minFrameSize = smp.HeaderSize + 2

// frame is a decoded response as it comes off the wire.
type frame struct {
	hdr     smp.Header
	payload []byte
}

// Engine runs SMP request/response cycles over a transport. One request
// is in flight at a time; the engine serializes callers.
type Engine struct {
	mu        sync.Mutex // held across a full request/response cycle
	tr        Transport
	log       *logrus.Logger
	seq       atomic.Uint32
	timeout   atomic.Int64 // nanoseconds
	frameSize atomic.Int64
	frames    chan frame
	readErr   error
	readDone  chan struct{}
	closeOnce sync.Once
}

// NewEngine starts an engine on an open transport. The engine owns the
// transport and closes it on Close. A nil logger uses the standard one.
func NewEngine(tr Transport, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Engine{
		tr:       tr,
		log:      log,
		frames:   make(chan frame, 8),
		readDone: make(chan struct{}),
	}
	e.timeout.Store(int64(DefaultTimeout))
	e.frameSize.Store(DefaultFrameSize)
	go e.readLoop()
	return e
}

// Close shuts the transport down. Outstanding requests fail with
// ErrDisconnected.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.tr.Close()
	})
	return err
}

// SetTimeout changes the per-request timeout.
func (e *Engine) SetTimeout(d time.Duration) {
	e.timeout.Store(int64(d))
}

// Timeout returns the per-request timeout.
func (e *Engine) Timeout() time.Duration {
	return time.Duration(e.timeout.Load())
}

// SetFrameSize changes the maximum SMP message size (header plus
// payload) requests are sized to.
func (e *Engine) SetFrameSize(n int) error {
	if n < minFrameSize {
		return fmt.Errorf("%w: %d bytes (minimum %d)", ErrFrameSizeTooSmall, n, minFrameSize)
	}
	e.frameSize.Store(int64(n))
	return nil
}

// FrameSize returns the current maximum SMP message size.
func (e *Engine) FrameSize() int {
	return int(e.frameSize.Load())
}

// readLoop feeds transport bytes through the console decoder and parks
// completed frames on the channel. Stale frames nobody collected are
// evicted so the channel never blocks the reader.
func (e *Engine) readLoop() {
	dec := console.NewDecoder()
	buf := make([]byte, 512)
	for {
		n, err := e.tr.Read(buf)
		for _, b := range buf[:n] {
			msg := dec.Feed(b)
			if msg == nil {
				continue
			}
			hdr, herr := smp.DecodeHeader(msg)
			if herr != nil {
				e.log.WithError(herr).Debug("discarding malformed frame")
				continue
			}
			f := frame{hdr: hdr, payload: msg[smp.HeaderSize:]}
			e.log.WithFields(logrus.Fields{
				"op":    hdr.Op,
				"group": hdr.Group,
				"cmd":   hdr.Command,
				"seq":   hdr.Seq,
				"len":   len(f.payload),
			}).Debug("frame received")
			for {
				select {
				case e.frames <- f:
				default:
					select {
					case <-e.frames:
					default:
					}
					continue
				}
				break
			}
		}
		if err != nil {
			e.readErr = err
			close(e.frames)
			close(e.readDone)
			return
		}
	}
}

// nextSeq returns the next 8-bit sequence number.
func (e *Engine) nextSeq() uint8 {
	return uint8(e.seq.Add(1) - 1)
}

// Transact sends one request and waits for its response, matching on
// sequence number. Frames with a stale sequence are drained and
// dropped. The returned payload is the raw CBOR response body.
func (e *Engine) Transact(op smp.Op, version uint8, group smp.Group, command uint8, body []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.nextSeq()
	hdr := smp.Header{
		Op:      op,
		Version: version,
		Length:  uint16(len(body)),
		Group:   group,
		Seq:     seq,
		Command: command,
	}
	hdrBytes, err := smp.EncodeHeader(hdr)
	if err != nil {
		return nil, err
	}

	msg := append(hdrBytes, body...)
	if len(msg) > e.FrameSize() {
		return nil, fmt.Errorf("request of %d bytes exceeds frame size %d", len(msg), e.FrameSize())
	}
	wire, err := console.Encode(msg)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"op":    op,
		"group": group,
		"cmd":   command,
		"seq":   seq,
		"len":   len(body),
	}).Debug("frame sent")
	if e.log.IsLevelEnabled(logrus.TraceLevel) {
		e.log.Tracef("tx %s", hex.EncodeToString(msg))
	}

	if _, err := e.tr.Write(wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}

	deadline := time.NewTimer(e.Timeout())
	defer deadline.Stop()

	wantOp := smp.ResponseOp(op)
	for {
		select {
		case f, ok := <-e.frames:
			if !ok {
				return nil, fmt.Errorf("%w: %v", ErrDisconnected, e.readErr)
			}
			if f.hdr.Seq != seq {
				e.log.WithField("seq", f.hdr.Seq).Debug("draining stale frame")
				continue
			}
			if f.hdr.Op != wantOp {
				e.log.WithField("op", f.hdr.Op).Debug("draining frame with unexpected op")
				continue
			}
			return f.payload, nil
		case <-deadline.C:
			return nil, fmt.Errorf("%w after %s", ErrTimeout, e.Timeout())
		}
	}
}
