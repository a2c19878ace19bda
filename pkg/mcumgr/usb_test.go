package mcumgr

import "testing"

func TestParseUSBSelector(t *testing.T) {
	tests := []struct {
		in   string
		want USBSelector
	}{
		{"2fe3:0004", USBSelector{VID: 0x2FE3, PID: 0x0004}},
		{"2FE3:0004:2", USBSelector{VID: 0x2FE3, PID: 0x0004, Index: 2}},
		{"10c4:ea60:10", USBSelector{VID: 0x10C4, PID: 0xEA60, Index: 10}},
		{"1:2", USBSelector{VID: 1, PID: 2}},
	}
	for _, tt := range tests {
		got, err := ParseUSBSelector(tt.in)
		if err != nil {
			t.Errorf("ParseUSBSelector(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseUSBSelector(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseUSBSelector_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"2fe3",
		"2fe3:",
		"12345:0004",
		"zzzz:0004",
		"2fe3:0004:",
		"2fe3:0004:x",
		"2fe3:0004:1:2",
	} {
		if _, err := ParseUSBSelector(in); err == nil {
			t.Errorf("ParseUSBSelector(%q): expected error", in)
		}
	}
}

func TestUSBPortString(t *testing.T) {
	p := USBPort{
		VID:     0x2FE3,
		PID:     0x0004,
		Index:   0,
		Name:    "/dev/ttyACM0",
		Product: "Zephyr Project CDC ACM",
	}
	want := `2fe3:0004:0 /dev/ttyACM0 "Zephyr Project CDC ACM"`
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
