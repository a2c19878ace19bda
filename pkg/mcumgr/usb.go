// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package mcumgr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.bug.st/serial/enumerator"
)

var usbSelectorRe = regexp.MustCompile(`^([0-9a-fA-F]{1,4}):([0-9a-fA-F]{1,4})(?::([0-9]+))?$`)

// USBSelector identifies a USB serial device by VID and PID, with an
// index picking among multiple matches (enumeration order).
type USBSelector struct {
	VID   uint16
	PID   uint16
	Index int
}

// ParseUSBSelector parses a "VID:PID" or "VID:PID:index" selector with
// hexadecimal VID/PID.
func ParseUSBSelector(s string) (USBSelector, error) {
	m := usbSelectorRe.FindStringSubmatch(s)
	if m == nil {
		return USBSelector{}, fmt.Errorf("invalid USB selector %q (expected VID:PID or VID:PID:index)", s)
	}
	vid, _ := strconv.ParseUint(m[1], 16, 16)
	pid, _ := strconv.ParseUint(m[2], 16, 16)
	index := 0
	if m[3] != "" {
		i, err := strconv.Atoi(m[3])
		if err != nil {
			return USBSelector{}, fmt.Errorf("invalid USB selector index %q", m[3])
		}
		index = i
	}
	return USBSelector{VID: uint16(vid), PID: uint16(pid), Index: index}, nil
}

// USBPort describes one enumerated USB serial port.
type USBPort struct {
	VID     uint16
	PID     uint16
	Index   int
	Name    string
	Product string
}

// String renders the port the way listings and error messages show it.
func (p USBPort) String() string {
	return fmt.Sprintf("%04x:%04x:%d %s %q", p.VID, p.PID, p.Index, p.Name, p.Product)
}

// ListUSBPorts enumerates USB serial ports, assigning per-VID:PID
// indices in enumeration order.
func ListUSBPorts() ([]USBPort, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("USB enumeration failed: %w", err)
	}

	indices := make(map[[2]uint16]int)
	var ports []USBPort
	for _, d := range details {
		if !d.IsUSB {
			continue
		}
		vid, err := strconv.ParseUint(d.VID, 16, 16)
		if err != nil {
			continue
		}
		pid, err := strconv.ParseUint(d.PID, 16, 16)
		if err != nil {
			continue
		}
		key := [2]uint16{uint16(vid), uint16(pid)}
		ports = append(ports, USBPort{
			VID:     uint16(vid),
			PID:     uint16(pid),
			Index:   indices[key],
			Name:    d.Name,
			Product: d.Product,
		})
		indices[key]++
	}
	return ports, nil
}

// FindUSBPort resolves a selector to a port name.
func FindUSBPort(sel USBSelector) (string, error) {
	ports, err := ListUSBPorts()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.VID == sel.VID && p.PID == sel.PID && p.Index == sel.Index {
			return p.Name, nil
		}
	}
	var lines []string
	for _, p := range ports {
		lines = append(lines, "  "+p.String())
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("no USB serial device matches %04x:%04x:%d (none found)", sel.VID, sel.PID, sel.Index)
	}
	return "", fmt.Errorf("no USB serial device matches %04x:%04x:%d; available:\n%s",
		sel.VID, sel.PID, sel.Index, strings.Join(lines, "\n"))
}

// OpenUSBSerial opens the serial port matching a USB selector string.
func OpenUSBSerial(selector string, baudRate int) (*SerialTransport, error) {
	sel, err := ParseUSBSelector(selector)
	if err != nil {
		return nil, err
	}
	name, err := FindUSBPort(sel)
	if err != nil {
		return nil, err
	}
	return OpenSerial(name, baudRate)
}
