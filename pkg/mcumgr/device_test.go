package mcumgr

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mveiten/gomcumgr/pkg/console"
	"github.com/mveiten/gomcumgr/pkg/smp"
)

// pipeTransport joins two in-process pipes into a Transport.
type pipeTransport struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeTransport) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeTransport) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *pipeTransport) Close() error {
	p.w.Close()
	return p.r.Close()
}

// scriptedFrame is one frame a scripted device sends back. The body is
// CBOR encoded before transmission and Length is filled in.
type scriptedFrame struct {
	hdr  smp.Header
	body any
}

// reply builds the matching response frame for a request header.
func reply(hdr smp.Header, body any) scriptedFrame {
	return scriptedFrame{
		hdr: smp.Header{
			Op:      smp.ResponseOp(hdr.Op),
			Version: hdr.Version,
			Group:   hdr.Group,
			Seq:     hdr.Seq,
			Command: hdr.Command,
		},
		body: body,
	}
}

// newTestClient wires a client to a scripted device living on the other
// end of an in-memory pipe. The handler runs once per decoded request
// and returns the frames to send back; nil sends nothing.
func newTestClient(t *testing.T, handler func(hdr smp.Header, body []byte) []scriptedFrame) *Client {
	t.Helper()

	devIn, hostOut := io.Pipe()
	hostIn, devOut := io.Pipe()

	go func() {
		dec := console.NewDecoder()
		buf := make([]byte, 256)
		for {
			n, err := devIn.Read(buf)
			for _, b := range buf[:n] {
				msg := dec.Feed(b)
				if msg == nil {
					continue
				}
				hdr, derr := smp.DecodeHeader(msg)
				if derr != nil {
					continue
				}
				for _, f := range handler(hdr, msg[smp.HeaderSize:]) {
					body, merr := smp.EncodeCBOR(f.body)
					if merr != nil {
						t.Errorf("scripted device: encode body: %v", merr)
						return
					}
					f.hdr.Length = uint16(len(body))
					hb, herr := smp.EncodeHeader(f.hdr)
					if herr != nil {
						t.Errorf("scripted device: encode header: %v", herr)
						return
					}
					wire, werr := console.Encode(append(hb, body...))
					if werr != nil {
						t.Errorf("scripted device: frame: %v", werr)
						return
					}
					if _, werr := devOut.Write(wire); werr != nil {
						return
					}
				}
			}
			if err != nil {
				return
			}
		}
	}()

	log := logrus.New()
	log.SetOutput(io.Discard)
	c := NewClient(&pipeTransport{r: hostIn, w: hostOut}, log)
	t.Cleanup(func() { c.Close() })
	return c
}
