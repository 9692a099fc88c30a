// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bvault/bvaultd/baltop"
	"github.com/bvault/bvaultd/configuration"
	"github.com/bvault/bvaultd/economy"
	"github.com/bvault/bvaultd/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := configuration.GetConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(logger.Configuration{
		Directory: theConfiguration.Logging.Directory,
		File:      theConfiguration.Logging.File,
		Size:      theConfiguration.Logging.Size,
		Count:     theConfiguration.Logging.Count,
		Levels:    theConfiguration.Logging.Levels,
	}); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0o600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	log.Infof("default bank: %q", theConfiguration.DefaultBank)
	log.Infof("backend: %q", theConfiguration.Database.Backend)

	// leaderboards sized from the configuration
	top := baltop.New(theConfiguration.TopSize)
	defer top.Close()

	// the facade starts against the disabled backend, the concrete
	// one is swapped in below
	swap := storage.NewSwap(storage.NewDisabled())
	defer swap.Close()

	facade := economy.New(swap, top, nil)

	lifetime, sweep, _ := theConfiguration.CacheDurations()
	storageConfig := storage.Config{
		CacheLifetime: lifetime,
		SweepInterval: sweep,
		Workers:       theConfiguration.Workers,
		DefaultBank:   theConfiguration.DefaultBank,
	}

	log.Info("initialise storage")
	var backend storage.Store
	switch theConfiguration.Database.Backend {
	case configuration.BackendLevelDB:
		backend, err = storage.NewLevelDB(theConfiguration.Database.Name, storageConfig, top, nil)
	case configuration.BackendPostgresql:
		backend, err = storage.NewPostgres(theConfiguration.Database.URL, storageConfig, top, nil)
	case configuration.BackendNone:
		backend = nil // stay on the disabled backend
	}
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	if nil != backend {
		previous := swap.Set(backend)
		_ = previous.Close() // the disabled placeholder
		log.Infof("known banks: %d", len(facade.KnownBanks()))
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}
