// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package endpoint

import (
	"fmt"
	"os"
	"sync"

	"github.com/bureau-foundation/wpanrelay/lib/config"
)

// DefaultDevicePath is the wpantap character device.
const DefaultDevicePath = "/dev/net/wpantap"

// Device is an open virtual network device. Each Read returns one frame
// and each Write delivers one frame.
type Device struct {
	file *os.File
	name string

	closeOnce sync.Once
	closeErr  error
}

// OpenDevice opens the device described by cfg. An empty kind means
// wpantap; an empty wpantap path means DefaultDevicePath.
func OpenDevice(cfg config.DeviceConfig) (*Device, error) {
	switch cfg.Kind {
	case "", config.DeviceWPANTap:
		path := cfg.Path
		if path == "" {
			path = DefaultDevicePath
		}
		file, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("opening wpantap device %s: %w", path, err)
		}
		return NewDevice(file, path), nil
	case config.DeviceTAP:
		device, err := openTAP(cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("creating tap interface %q: %w", cfg.Name, err)
		}
		return device, nil
	default:
		return nil, fmt.Errorf("unknown device kind %q", cfg.Kind)
	}
}

// NewDevice wraps an already open file. The Device takes ownership of
// file.
func NewDevice(file *os.File, name string) *Device {
	return &Device{file: file, name: name}
}

// Read reads one frame into p.
func (d *Device) Read(p []byte) (int, error) {
	return d.file.Read(p)
}

// Write writes p as one frame.
func (d *Device) Write(p []byte) (int, error) {
	return d.file.Write(p)
}

// Close closes the device. Later calls return the first result.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.file.Close()
	})
	return d.closeErr
}

// Fd returns the device's file descriptor. As with os.File.Fd, the
// descriptor is put in blocking mode; callers must wait for readiness
// before reading.
func (d *Device) Fd() uintptr {
	return d.file.Fd()
}

// Name is the device path or interface name.
func (d *Device) Name() string {
	return d.name
}
