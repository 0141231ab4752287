// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package endpoint

import (
	"fmt"
	"os"

	"github.com/songgao/water"
)

// openTAP creates a TAP interface. An empty name lets the kernel pick
// one (tap0, tap1, ...).
func openTAP(name string) (*Device, error) {
	tapConfig := water.Config{DeviceType: water.TAP}
	tapConfig.Name = name

	iface, err := water.New(tapConfig)
	if err != nil {
		return nil, err
	}
	file, ok := iface.ReadWriteCloser.(*os.File)
	if !ok {
		iface.Close()
		return nil, fmt.Errorf("tap interface %s is a %T, not a file", iface.Name(), iface.ReadWriteCloser)
	}
	return NewDevice(file, iface.Name()), nil
}
