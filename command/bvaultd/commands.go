// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"runtime"

	"github.com/bvault/bvaultd/configuration"
)

// setup command handler
//
// commands that do not need the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "version":
		fmt.Printf("%s\n", version)

	case "help", "h", "?":
		fmt.Printf("usage: %s [--help] [--quiet] [--version] --config-file=FILE [command]\n", program)
		fmt.Printf("supported commands:\n")
		fmt.Printf("  help                   (h)      - display this message\n")
		fmt.Printf("  version                (v)      - display version: %s\n", version)
		fmt.Printf("  show-config            (config) - display the parsed configuration\n")
		fmt.Printf("  start                           - no command also starts the daemon\n")

	case "start":
		return false // continue into the daemon

	default:
		// unknown commands fall through to config handling
		return false
	}
	return true
}

// config command handler
//
// commands that need a parsed configuration file
func processConfigCommand(arguments []string, cfg *configuration.Configuration) bool {

	switch arguments[0] {
	case "show-config", "config":
		fmt.Printf("data directory: %q\n", cfg.DataDirectory)
		fmt.Printf("pid file:       %q\n", cfg.PidFile)
		fmt.Printf("default bank:   %q\n", cfg.DefaultBank)
		fmt.Printf("top size:       %d\n", cfg.TopSize)
		fmt.Printf("workers:        %d  (GOMAXPROCS: %d)\n", cfg.Workers, runtime.GOMAXPROCS(0))
		fmt.Printf("cache:          lifetime: %s  sweep: %s\n", cfg.Cache.Lifetime, cfg.Cache.Sweep)
		fmt.Printf("backend:        %q\n", cfg.Database.Backend)
		switch cfg.Database.Backend {
		case configuration.BackendLevelDB:
			fmt.Printf("database:       %q\n", cfg.Database.Name)
		case configuration.BackendPostgresql:
			fmt.Printf("database url:   %q\n", cfg.Database.URL)
		}
		fmt.Printf("logging:        %q\n", cfg.Logging.Directory)
		return true
	}
	return false
}
