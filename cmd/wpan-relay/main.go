// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/wpanrelay/endpoint"
	"github.com/bureau-foundation/wpanrelay/lib/config"
	"github.com/bureau-foundation/wpanrelay/lib/process"
	"github.com/bureau-foundation/wpanrelay/lib/version"
	"github.com/bureau-foundation/wpanrelay/relay"
)

const binaryName = "wpan-relay"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		process.Fatal(err)
	}
}

type options struct {
	configPath  string
	verbose     bool
	showVersion bool
	showHelp    bool
}

func parseFlags(args []string) (*options, *pflag.FlagSet, error) {
	var opts options
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to the relay config file (default: $"+config.EnvironmentVariable+")")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log every relayed frame at debug level")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.BoolVarP(&opts.showHelp, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return nil, flagSet, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, flagSet, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return &opts, flagSet, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, flagSet, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return nil
		}
		return err
	}
	if opts.showHelp {
		printHelp(stdout, flagSet)
		return nil
	}
	if opts.showVersion {
		version.Fprint(stdout, binaryName)
		return nil
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.Log, opts.verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	device, err := endpoint.OpenDevice(cfg.Device)
	if err != nil {
		return err
	}
	socket, err := endpoint.ListenSocket(cfg.Me, cfg.Peer)
	if err != nil {
		device.Close()
		return err
	}
	logger.Info("endpoints open",
		"device", device.Name(),
		"local", socket.LocalAddr(),
		"peer", socket.Peer(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, newRelay(cfg, device, socket, logger), logger)
}

// loadConfig reads the file at path, or the file named by the
// environment when path is empty, and validates it.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func newRelay(cfg *config.Config, device *endpoint.Device, socket *endpoint.Socket, logger *slog.Logger) *relay.Relay {
	return &relay.Relay{
		Device:        device,
		Socket:        socket,
		Peer:          socket.Peer(),
		Logger:        logger,
		PollTimeout:   cfg.PollTimeout(),
		MaxFrameSize:  cfg.Relay.MaxFrameSize,
		TrailerSize:   cfg.Relay.TrailerSize,
		StatsInterval: cfg.StatsInterval(),
		StrictPeer:    cfg.Relay.StrictPeer,
	}
}

// serve runs the relay until ctx is cancelled, then releases both
// endpoints. Cancellation closes the endpoints immediately so a read
// already in flight returns. Close failures are logged and do not change
// the exit status.
func serve(ctx context.Context, r *relay.Relay, logger *slog.Logger) error {
	stopClosing := context.AfterFunc(ctx, func() { r.Close() })
	defer stopClosing()

	runErr := r.Run(ctx)
	if err := r.Close(); err != nil {
		logger.Warn("closing endpoints", "error", err)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("wpan-relay exited", "stats", r.Stats())
	return nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `wpan-relay - tunnel 802.15.4 frames between a wpantap device and a UDP peer

USAGE
    wpan-relay [flags]

The config file (JSONC or YAML) must name this relay's address and the
peer's:

    {
      "me":   {"ip": "10.0.2.5", "port": 12001},
      "peer": {"ip": "10.0.2.6", "port": 12001}
    }

EXAMPLES
    # Config from the environment
    %[1]s=/etc/wpan-relay.jsonc wpan-relay

    # Explicit config, per-frame logging
    wpan-relay --config relay.yaml --verbose

FLAGS
`, config.EnvironmentVariable)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
