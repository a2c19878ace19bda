package mcumgr

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mveiten/gomcumgr/pkg/smp"
)

// echoDevice answers echo requests and nothing else.
func echoDevice(hdr smp.Header, body []byte) []scriptedFrame {
	req, err := smp.DecodeCBOR[smp.EchoRequest](body)
	if err != nil {
		return nil
	}
	return []scriptedFrame{reply(hdr, smp.EchoResponse{R: req.D})}
}

func TestEcho(t *testing.T) {
	c := newTestClient(t, echoDevice)

	got, err := c.Echo("Hello world!")
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", got)
}

func TestCheckConnection(t *testing.T) {
	c := newTestClient(t, echoDevice)
	require.NoError(t, c.CheckConnection())
}

func TestCheckConnection_WrongEcho(t *testing.T) {
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		return []scriptedFrame{reply(hdr, smp.EchoResponse{R: "garbled"})}
	})
	err := c.CheckConnection()
	require.ErrorIs(t, err, ErrProtocol)
}

func TestDeviceErrorSurfaces(t *testing.T) {
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		return []scriptedFrame{reply(hdr, map[string]any{"rc": 8})}
	})

	_, err := c.Echo("hi")
	require.Error(t, err)
	var devErr *smp.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, smp.ErrCodeNotSupported, devErr.RC)
	assert.Equal(t, smp.GroupOS, devErr.Group)
}

func TestTransact_DrainsStaleFrames(t *testing.T) {
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		stale := reply(hdr, smp.EchoResponse{R: "stale"})
		stale.hdr.Seq = hdr.Seq + 17

		wrongOp := reply(hdr, smp.EchoResponse{R: "wrong op"})
		wrongOp.hdr.Op = hdr.Op

		req, _ := smp.DecodeCBOR[smp.EchoRequest](body)
		return []scriptedFrame{stale, wrongOp, reply(hdr, smp.EchoResponse{R: req.D})}
	})

	got, err := c.Echo("real")
	require.NoError(t, err)
	assert.Equal(t, "real", got)
}

func TestTransact_Timeout(t *testing.T) {
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		return nil
	})
	c.SetTimeout(50 * time.Millisecond)

	_, err := c.Echo("anyone there")
	require.ErrorIs(t, err, ErrTimeout)
}

// eofTransport reports end of stream immediately.
type eofTransport struct{}

func (eofTransport) Read([]byte) (int, error)    { return 0, io.EOF }
func (eofTransport) Write(b []byte) (int, error) { return len(b), nil }
func (eofTransport) Close() error                { return nil }

func TestTransact_Disconnected(t *testing.T) {
	c := NewClient(eofTransport{}, nil)
	defer c.Close()
	c.SetTimeout(time.Second)

	_, err := c.Echo("hi")
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestSequenceWraparound(t *testing.T) {
	c := newTestClient(t, echoDevice)
	c.SetTimeout(5 * time.Second)

	for i := 0; i < 300; i++ {
		got, err := c.Echo("ping")
		require.NoError(t, err, "request %d", i)
		require.Equal(t, "ping", got, "request %d", i)
	}
}

func TestSetVersion(t *testing.T) {
	c := newTestClient(t, echoDevice)
	require.NoError(t, c.SetVersion(0))
	require.NoError(t, c.SetVersion(1))
	require.Error(t, c.SetVersion(4))
}

func TestVersionReachesWire(t *testing.T) {
	var seen []uint8
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		seen = append(seen, hdr.Version)
		return echoDevice(hdr, body)
	})

	require.NoError(t, c.SetVersion(2))
	_, err := c.Echo("v")
	require.NoError(t, err)
	require.Equal(t, []uint8{2}, seen)
}

func TestUseAutoFrameSize(t *testing.T) {
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		return []scriptedFrame{reply(hdr, smp.McumgrParametersResponse{BufSize: 512, BufCount: 4})}
	})

	n, err := c.UseAutoFrameSize()
	require.NoError(t, err)
	assert.Equal(t, 512, n)
	assert.Equal(t, 512, c.FrameSize())
}

func TestSetFrameSize_TooSmall(t *testing.T) {
	c := newTestClient(t, echoDevice)
	require.ErrorIs(t, c.SetFrameSize(4), ErrFrameSizeTooSmall)
	assert.Equal(t, DefaultFrameSize, c.FrameSize())
}

func TestRawCommand_NilPayload(t *testing.T) {
	var gotBody []byte
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		gotBody = append([]byte(nil), body...)
		return []scriptedFrame{reply(hdr, map[string]any{"r": "raw"})}
	})

	rsp, err := c.RawCommand(smp.OpRead, smp.GroupOS, smp.CmdOSEcho, nil)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(gotBody, []byte{0xA0}), "nil payload should go out as an empty map")

	dec, err := smp.DecodeCBOR[map[string]any](rsp)
	require.NoError(t, err)
	assert.Equal(t, "raw", dec["r"])
}

func TestReset_TimeoutIsSuccess(t *testing.T) {
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		return nil // device rebooted before answering
	})
	c.SetTimeout(50 * time.Millisecond)

	require.NoError(t, c.Reset(false))
}

func TestShellExec(t *testing.T) {
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		req, err := smp.DecodeCBOR[smp.ShellExecRequest](body)
		if err != nil || len(req.Argv) == 0 {
			return []scriptedFrame{reply(hdr, map[string]any{"rc": 3})}
		}
		if req.Argv[0] == "missing" {
			ret := -2
			return []scriptedFrame{reply(hdr, smp.ShellExecResponse{Output: "oops", Ret: &ret})}
		}
		ret := 0
		return []scriptedFrame{reply(hdr, smp.ShellExecResponse{Output: "uptime: 342 seconds", Ret: &ret})}
	})

	out, ret, err := c.ShellExec([]string{"kernel", "uptime"})
	require.NoError(t, err)
	assert.Equal(t, "uptime: 342 seconds", out)
	assert.Equal(t, 0, ret)

	out, ret, err = c.ShellExec([]string{"missing"})
	require.NoError(t, err)
	assert.Equal(t, "oops", out)
	assert.Equal(t, -2, ret)
	assert.Equal(t, "ENOENT", smp.Errno(ret).String())
}

func TestImageState(t *testing.T) {
	hash := bytes.Repeat([]byte{0xA5}, 32)
	c := newTestClient(t, func(hdr smp.Header, body []byte) []scriptedFrame {
		return []scriptedFrame{reply(hdr, smp.ImageStateResponse{
			Images: []smp.ImageStateEntry{
				{Image: 0, Slot: 0, Version: "1.2.3", Hash: hash, Bootable: true, Confirmed: true, Active: true},
			},
		})}
	})

	state, err := c.ImageState()
	require.NoError(t, err)
	require.Len(t, state.Images, 1)
	assert.Equal(t, "1.2.3", state.Images[0].Version)
	assert.NotNil(t, matchesHash(state, hash))
	assert.Nil(t, matchesHash(state, bytes.Repeat([]byte{0x00}, 32)))
}
