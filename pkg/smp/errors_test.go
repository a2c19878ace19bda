package smp

import (
	"errors"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := cbor.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestCheckResponse_V2Envelope(t *testing.T) {
	payload := mustMarshal(t, map[string]any{
		"err": map[string]any{"group": 8, "rc": 5, "rsn": "file not found"},
	})

	err := CheckResponse(GroupOS, payload)
	if err == nil {
		t.Fatal("expected device error")
	}
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %T", err)
	}
	if devErr.Group != GroupFS {
		t.Errorf("group = %d, want %d (envelope group overrides request group)", devErr.Group, GroupFS)
	}
	if devErr.RC != ErrCodeNoEntry {
		t.Errorf("rc = %d, want %d", devErr.RC, ErrCodeNoEntry)
	}
	if devErr.Reason != "file not found" {
		t.Errorf("reason = %q", devErr.Reason)
	}
	if !strings.Contains(devErr.Error(), "MGMT_ERR_ENOENT") {
		t.Errorf("rendered error %q should name MGMT_ERR_ENOENT", devErr.Error())
	}
}

func TestCheckResponse_LegacyEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		group   Group
		wantRC  int
		wantRsn string
	}{
		{
			name:    "rc only",
			payload: map[string]any{"rc": 3},
			group:   GroupImage,
			wantRC:  ErrCodeInvalidValue,
		},
		{
			name:    "rc with reason",
			payload: map[string]any{"rc": 6, "rsn": "no upgrade in progress"},
			group:   GroupImage,
			wantRC:  ErrCodeBadState,
			wantRsn: "no upgrade in progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckResponse(tt.group, mustMarshal(t, tt.payload))
			var devErr *DeviceError
			if !errors.As(err, &devErr) {
				t.Fatalf("expected DeviceError, got %v", err)
			}
			if devErr.Group != tt.group {
				t.Errorf("group = %d, want request group %d", devErr.Group, tt.group)
			}
			if devErr.RC != tt.wantRC {
				t.Errorf("rc = %d, want %d", devErr.RC, tt.wantRC)
			}
			if devErr.Reason != tt.wantRsn {
				t.Errorf("reason = %q, want %q", devErr.Reason, tt.wantRsn)
			}
		})
	}
}

func TestCheckResponse_Success(t *testing.T) {
	payloads := []any{
		map[string]any{"r": "hello"},
		map[string]any{"rc": 0},
		map[string]any{"err": map[string]any{"group": 0, "rc": 0}},
		map[string]any{},
	}
	for _, p := range payloads {
		if err := CheckResponse(GroupOS, mustMarshal(t, p)); err != nil {
			t.Errorf("payload %v: unexpected error %v", p, err)
		}
	}
}

func TestErrName(t *testing.T) {
	tests := []struct {
		rc   int
		want string
	}{
		{0, "MGMT_ERR_EOK"},
		{8, "MGMT_ERR_ENOTSUP"},
		{9, "MGMT_ERR_ECORRUPT"},
		{99, "MGMT_ERR(99)"},
		{300, "MGMT_ERR_PERUSER(300)"},
	}
	for _, tt := range tests {
		if got := ErrName(tt.rc); got != tt.want {
			t.Errorf("ErrName(%d) = %q, want %q", tt.rc, got, tt.want)
		}
	}
}

func TestErrno(t *testing.T) {
	if got := Errno(-2).String(); got != "ENOENT" {
		t.Errorf("Errno(-2) = %q, want ENOENT", got)
	}
	if got := Errno(2).String(); got != "ENOENT" {
		t.Errorf("Errno(2) = %q, want ENOENT", got)
	}
	if got := Errno(-13).String(); got != "EACCES" {
		t.Errorf("Errno(-13) = %q, want EACCES", got)
	}
	if got := Errno(-9999).String(); got != "errno(9999)" {
		t.Errorf("Errno(-9999) = %q", got)
	}
}

func TestChecksumOutput(t *testing.T) {
	var out ChecksumOutput
	if err := cbor.Unmarshal(mustMarshal(t, uint32(0xDEADBEEF)), &out); err != nil {
		t.Fatalf("integer output: %v", err)
	}
	if !out.IsInt || out.Hex() != "deadbeef" {
		t.Errorf("integer checksum rendered %q", out.Hex())
	}

	if err := cbor.Unmarshal(mustMarshal(t, []byte{0x01, 0xAB}), &out); err != nil {
		t.Fatalf("byte output: %v", err)
	}
	if out.IsInt || out.Hex() != "01ab" {
		t.Errorf("byte checksum rendered %q", out.Hex())
	}
}
