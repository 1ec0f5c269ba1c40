// cmd/groundctl/main.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// groundctl coordinates surface traffic for one airport: it consumes
// telemetry reports on stdin (one JSON object per line), runs conflict
// prediction and clearance sequencing, and writes control instructions to
// stdout.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groundctl/airport"
	"groundctl/log"
	"groundctl/ops"
)

var (
	airportFile = flag.String("airport", "", "airport surface description (JSON, optionally zstd-compressed)")
	configFile  = flag.String("config", "", "YAML configuration file")
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir      = flag.String("logdir", "", "directory for log files")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndLogCrash()

	if *airportFile == "" {
		fmt.Fprintln(os.Stderr, "usage: groundctl -airport <file> [-config <file>]")
		os.Exit(1)
	}

	config := ops.DefaultConfig()
	if *configFile != "" {
		var err error
		if config, err = ops.LoadConfig(*configFile); err != nil {
			lg.Errorf("%s: %v", *configFile, err)
			os.Exit(1)
		}
	}

	ap, err := airport.Load(*airportFile, lg)
	if err != nil {
		lg.Errorf("%s: %v", *airportFile, err)
		os.Exit(1)
	}

	coord := ops.NewCoordinator(ap, config, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SIGUSR1 dumps the coordinator state for debugging a live instance.
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	go func() {
		for range usr1 {
			coord.DumpState(os.Stderr)
		}
	}()

	go readTelemetry(os.Stdin, coord, lg)
	go writeCommands(coord)

	if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Errorf("coordinator: %v", err)
	}
	lg.Info("exiting")
}

// report is one line of stdin input: either a position report or a wind
// update.
type report struct {
	Callsign string             `json:"callsign"`
	Class    airport.SizeClass  `json:"class"`
	P        [2]float32         `json:"p"`
	Heading  float32            `json:"heading"`
	Speed    float32            `json:"speed"`
	Wind     *airport.WindVector `json:"wind"`
}

func readTelemetry(r *os.File, coord *ops.Coordinator, lg *log.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var rep report
		if err := json.Unmarshal(scanner.Bytes(), &rep); err != nil {
			lg.Warnf("telemetry: %v", err)
			continue
		}

		if rep.Wind != nil {
			coord.SetWind(*rep.Wind)
			continue
		}
		if rep.Callsign == "" {
			lg.Warnf("telemetry: missing callsign: %q", scanner.Text())
			continue
		}
		coord.AddTelemetry(ops.Telemetry{
			Callsign: rep.Callsign,
			Class:    rep.Class,
			P:        rep.P,
			Heading:  rep.Heading,
			Speed:    rep.Speed,
			Time:     time.Now(),
		})
	}
}

func writeCommands(coord *ops.Coordinator) {
	for cmd := range coord.Commands() {
		fmt.Println(cmd.Text)
	}
}
