// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

// Package mcumgr is the host side of MCUmgr device management: it opens
// a transport to the device, runs SMP request/response cycles over the
// console framing, and exposes one method per management operation on
// the Client type, including streaming file and firmware transfers.
package mcumgr

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
)

// Transport is a byte stream to the device. Reads block until data
// arrives or the transport fails.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialTransport wraps a serial port.
type SerialTransport struct {
	port serial.Port
}

func (s *SerialTransport) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}

// OpenSerial opens a serial port in the 8N1 framing devices expect.
func OpenSerial(portName string, baudRate int) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialTransport{port: port}, nil
}

// WebSocketTransport adapts a WebSocket carrying binary messages into a
// byte stream, for serial-over-network gateways.
type WebSocketTransport struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *WebSocketTransport) Read(p []byte) (int, error) {
	if w.closed {
		return 0, io.EOF
	}

	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		// Text and control messages are not part of the byte stream.
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}

// OpenWebSocket dials a ws:// or wss:// gateway.
func OpenWebSocket(wsURL string, skipTLSVerify bool) (*WebSocketTransport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipTLSVerify,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	return &WebSocketTransport{conn: conn}, nil
}
