// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package endpoint

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/wpanrelay/lib/config"
)

func TestDeviceFrames(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() { unix.Close(fds[1]) })

	device := NewDevice(os.NewFile(uintptr(fds[0]), "pair"), "wpan0")
	t.Cleanup(func() { device.Close() })

	if device.Name() != "wpan0" {
		t.Errorf("Name() = %q, want wpan0", device.Name())
	}
	if int(device.Fd()) != fds[0] {
		t.Errorf("Fd() = %d, want %d", device.Fd(), fds[0])
	}

	// Two frames written back to back come out as two reads.
	for _, frame := range [][]byte{{1, 2, 3}, {4, 5}} {
		if _, err := unix.Write(fds[1], frame); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	buffer := make([]byte, 1024)
	for _, want := range [][]byte{{1, 2, 3}, {4, 5}} {
		n, err := device.Read(buffer)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(buffer[:n], want) {
			t.Errorf("Read = %v, want %v", buffer[:n], want)
		}
	}

	if _, err := device.Write([]byte{9, 8, 7}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	n, err := unix.Read(fds[1], buffer)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buffer[:n], []byte{9, 8, 7}) {
		t.Errorf("peer end read %v, want [9 8 7]", buffer[:n])
	}
}

func TestDeviceCloseOnce(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "device")
	if err != nil {
		t.Fatal(err)
	}
	device := NewDevice(file, file.Name())

	if err := device.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := device.Close(); err != nil {
		t.Errorf("second Close = %v, want the first result (nil)", err)
	}
	if _, err := device.Read(make([]byte, 1)); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Read after Close = %v, want os.ErrClosed", err)
	}
}

func TestOpenDeviceWPANTap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wpantap")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	device, err := OpenDevice(config.DeviceConfig{Kind: config.DeviceWPANTap, Path: path})
	if err != nil {
		t.Fatalf("OpenDevice: %v", err)
	}
	defer device.Close()

	if device.Name() != path {
		t.Errorf("Name() = %q, want %q", device.Name(), path)
	}
	if _, err := device.Write([]byte("frame")); err != nil {
		t.Errorf("Write: %v", err)
	}
}

func TestOpenDeviceErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	tests := []struct {
		name   string
		config config.DeviceConfig
		want   string
	}{
		{"missing path", config.DeviceConfig{Kind: config.DeviceWPANTap, Path: missing}, missing},
		{"unknown kind", config.DeviceConfig{Kind: "tun"}, `unknown device kind "tun"`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := OpenDevice(test.config)
			if err == nil {
				t.Fatal("OpenDevice succeeded, want an error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want it to mention %q", err, test.want)
			}
		})
	}
}

func TestOpenDeviceTAP(t *testing.T) {
	device, err := OpenDevice(config.DeviceConfig{Kind: config.DeviceTAP, Name: "wpanrelay0"})
	if err != nil {
		// Needs CAP_NET_ADMIN and /dev/net/tun.
		t.Skipf("tap interface unavailable: %v", err)
	}
	defer device.Close()

	if device.Name() != "wpanrelay0" {
		t.Errorf("Name() = %q, want wpanrelay0", device.Name())
	}
	if int(device.Fd()) < 0 {
		t.Errorf("Fd() = %d, want a valid descriptor", int(device.Fd()))
	}
}
