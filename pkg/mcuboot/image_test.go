package mcuboot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"
)

// imageBuilder assembles synthetic MCUboot binaries for parser tests.
type imageBuilder struct {
	version       Version
	hdrSize       uint16
	body          []byte
	protectedTLVs []TLV
	tlvs          []TLV
	omitTrailer   bool
}

func newImageBuilder(body []byte) *imageBuilder {
	return &imageBuilder{
		version: Version{Major: 1, Minor: 2, Revision: 3, Build: 4},
		hdrSize: headerSize,
		body:    body,
	}
}

func (b *imageBuilder) withSHA256() *imageBuilder {
	sum := sha256.Sum256(b.body)
	b.tlvs = append(b.tlvs, TLV{Type: TLVSHA256, Value: sum[:]})
	return b
}

func encodeTLVRegion(magic uint16, tlvs []TLV) []byte {
	var body bytes.Buffer
	for _, tlv := range tlvs {
		binary.Write(&body, binary.LittleEndian, tlvHeader{Type: tlv.Type, Len: uint16(len(tlv.Value))})
		body.Write(tlv.Value)
	}
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, tlvInfo{Magic: magic, Total: uint16(4 + body.Len())})
	out.Write(body.Bytes())
	return out.Bytes()
}

func (b *imageBuilder) build() []byte {
	var protRegion []byte
	if len(b.protectedTLVs) > 0 {
		protRegion = encodeTLVRegion(TLVProtectedInfoMagic, b.protectedTLVs)
	}

	hdr := Header{
		Magic:            HeaderMagic,
		HdrSize:          b.hdrSize,
		ProtectedTLVSize: uint16(len(protRegion)),
		ImgSize:          uint32(len(b.body)),
		Version:          b.version,
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, hdr)
	out.Write(make([]byte, int(b.hdrSize)-headerSize))
	out.Write(b.body)
	out.Write(protRegion)
	if !b.omitTrailer {
		out.Write(encodeTLVRegion(TLVInfoMagic, b.tlvs))
	}
	return out.Bytes()
}

func TestParse(t *testing.T) {
	body := bytes.Repeat([]byte{0x5A}, 64)
	data := newImageBuilder(body).withSHA256().build()

	img, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Header.Magic != HeaderMagic {
		t.Errorf("magic = 0x%08x", img.Header.Magic)
	}
	if !bytes.Equal(img.Body, body) {
		t.Error("body does not round trip")
	}
	if got := img.Header.Version.String(); got != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", got)
	}

	hash, err := img.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	want := sha256.Sum256(body)
	if !bytes.Equal(hash, want[:]) {
		t.Error("hash TLV does not match body digest")
	}
}

func TestParse_HeaderBytes(t *testing.T) {
	// The header is little-endian: the magic 0x96f3b83d appears on disk
	// as 3D B8 F3 96, and version 1.2.3+4 as 01 02 03 00 04 00 00 00.
	data := newImageBuilder([]byte{0xAA}).withSHA256().build()

	if !bytes.Equal(data[:4], []byte{0x3D, 0xB8, 0xF3, 0x96}) {
		t.Errorf("magic on disk = % X", data[:4])
	}
	if !bytes.Equal(data[20:28], []byte{0x01, 0x02, 0x03, 0x00, 0x04, 0x00, 0x00, 0x00}) {
		t.Errorf("version on disk = % X", data[20:28])
	}

	img, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := img.Header.Version
	if v.Major != 1 || v.Minor != 2 || v.Revision != 3 || v.Build != 4 {
		t.Errorf("version = %+v", v)
	}
}

func TestParse_BadMagic(t *testing.T) {
	data := newImageBuilder([]byte{0x01}).withSHA256().build()
	data[0] ^= 0xFF

	_, err := Parse(data)
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("error = %v, want ErrBadMagic", err)
	}
}

func TestParse_Truncated(t *testing.T) {
	data := newImageBuilder(bytes.Repeat([]byte{0x11}, 32)).withSHA256().build()

	if _, err := Parse(data[:16]); !errors.Is(err, ErrTruncated) {
		t.Errorf("short header: error = %v, want ErrTruncated", err)
	}
	if _, err := Parse(data[:headerSize+8]); !errors.Is(err, ErrTruncated) {
		t.Errorf("short body: error = %v, want ErrTruncated", err)
	}
}

func TestParse_PaddedHeader(t *testing.T) {
	// MCUboot images built for execute-in-place commonly pad the header
	// to 0x200 before the vector table.
	body := bytes.Repeat([]byte{0x77}, 40)
	b := newImageBuilder(body).withSHA256()
	b.hdrSize = 0x200

	img, err := Parse(b.build())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(img.Body, body) {
		t.Error("body misplaced with padded header")
	}
}

func TestParse_ProtectedTLVs(t *testing.T) {
	b := newImageBuilder(bytes.Repeat([]byte{0x42}, 16)).withSHA256()
	b.protectedTLVs = []TLV{
		{Type: 0x50, Value: []byte{0xDE, 0xAD}},
	}
	b.tlvs = append(b.tlvs, TLV{Type: TLVKeyHash, Value: bytes.Repeat([]byte{0x33}, 32)})

	img, err := Parse(b.build())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prot := img.FindTLV(0x50)
	if prot == nil {
		t.Fatal("protected TLV not found")
	}
	if !prot.Protected {
		t.Error("TLV from the protected region not marked protected")
	}
	if !bytes.Equal(prot.Value, []byte{0xDE, 0xAD}) {
		t.Errorf("protected TLV value = % X", prot.Value)
	}

	sha := img.FindTLV(TLVSHA256)
	if sha == nil || sha.Protected {
		t.Error("unprotected SHA256 TLV missing or mismarked")
	}
}

func TestParse_MalformedTLV(t *testing.T) {
	base := newImageBuilder([]byte{0x01, 0x02}).withSHA256().build()

	t.Run("bad info magic", func(t *testing.T) {
		data := append([]byte(nil), base...)
		// First trailer byte is the low byte of the 0x6907 info magic.
		data[len(data)-4-32-4] ^= 0xFF
		if _, err := Parse(data); !errors.Is(err, ErrMalformedTLV) {
			t.Errorf("error = %v, want ErrMalformedTLV", err)
		}
	})

	t.Run("region exceeds image", func(t *testing.T) {
		data := append([]byte(nil), base...)
		data = data[:len(data)-8]
		if _, err := Parse(data); !errors.Is(err, ErrMalformedTLV) {
			t.Errorf("error = %v, want ErrMalformedTLV", err)
		}
	})

	t.Run("value overruns region", func(t *testing.T) {
		b := newImageBuilder([]byte{0x01})
		b.omitTrailer = true
		data := b.build()
		var region bytes.Buffer
		binary.Write(&region, binary.LittleEndian, tlvInfo{Magic: TLVInfoMagic, Total: 8})
		binary.Write(&region, binary.LittleEndian, tlvHeader{Type: TLVSHA256, Len: 100})
		if _, err := Parse(append(data, region.Bytes()...)); !errors.Is(err, ErrMalformedTLV) {
			t.Errorf("error = %v, want ErrMalformedTLV", err)
		}
	})
}

func TestParse_NoTrailer(t *testing.T) {
	b := newImageBuilder([]byte{0x01, 0x02, 0x03})
	b.omitTrailer = true

	img, err := Parse(b.build())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(img.TLVs) != 0 {
		t.Errorf("unexpected TLVs: %+v", img.TLVs)
	}
	if _, err := img.Hash(); !errors.Is(err, ErrMalformedTLV) {
		t.Errorf("Hash without trailer: error = %v, want ErrMalformedTLV", err)
	}
}

func TestVersionWithHash(t *testing.T) {
	img, err := Parse(newImageBuilder([]byte{0xAB, 0xCD}).withSHA256().build())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash, _ := img.Hash()
	want := "1.2.3-" + hex.EncodeToString(hash[:4])
	if got := img.VersionWithHash(); got != want {
		t.Errorf("VersionWithHash() = %q, want %q", got, want)
	}

	b := newImageBuilder([]byte{0x01})
	b.omitTrailer = true
	img, err = Parse(b.build())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := img.VersionWithHash(); got != "1.2.3" {
		t.Errorf("VersionWithHash() without hash = %q, want bare version", got)
	}
}
