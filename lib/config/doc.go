// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the relay's configuration file.
//
// Configuration comes from a single file named either by the
// WPAN_RELAY_CONFIG environment variable (via [Load]) or by the
// --config flag (via [LoadFile]). There is no discovery and no search
// path; a missing file is a startup error.
//
// Files ending in .yaml or .yml are parsed as YAML. Anything else is
// parsed as JSON with comments and trailing commas allowed (JSONC):
//
//	{
//	    // this host
//	    "me":   {"ip": "10.0.2.5", "port": 12001},
//	    "peer": {"ip": "${PEER_IP:-10.0.2.6}", "port": 12001},
//	}
//
// The two endpoint descriptors me and peer are required. Everything
// else (device, relay tuning, logging) has a default from [Default].
// ${VAR} and ${VAR:-default} are expanded in the string fields that
// name hosts and device paths.
//
// This package depends on no other packages in the module.
package config
