// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package endpoint

import "errors"

func openTAP(string) (*Device, error) {
	return nil, errors.New("tap devices are only supported on Linux")
}
