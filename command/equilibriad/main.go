// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/misterr-labs/Equilibria/background"
	"github.com/misterr-labs/Equilibria/checkpoint"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/servicenode"
	"github.com/misterr-labs/Equilibria/storage"
	"github.com/misterr-labs/Equilibria/txpool"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
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
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
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

	// selected network parameters
	params, err := netparams.ByName(theConfiguration.Chain)
	if nil != err {
		log.Criticalf("chain selection error: %s", err)
		exitwithstatus.Message("chain selection error: %s", err)
	}
	log.Infof("chain: %s", params.Name)

	// start a profiling http server
	// this uses the default builtin HTTP handler
	if "" != theConfiguration.ProfileHTTP {
		go func() {
			log.Warnf("profile listener on: %s", theConfiguration.ProfileHTTP)
			err := http.ListenAndServe(theConfiguration.ProfileHTTP, nil)
			exitwithstatus.Message("profile error: %s", err)
		}()
	}

	// start the data storage
	log.Info("initialise storage")
	log.Infof("database: %q", theConfiguration.Database.Name)
	err = storage.Initialise(theConfiguration.Database.Name, storage.ReadWrite)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	// checkpoint store with the optional extra sources
	log.Info("initialise checkpoints")
	checkpoints := checkpoint.NewStore(params)
	checkpointLog := logger.New("checkpoint")
	if "" != theConfiguration.Checkpoints.File {
		err = checkpoints.LoadFile(theConfiguration.Checkpoints.File, checkpointLog)
		if nil != err {
			log.Criticalf("checkpoint file error: %s", err)
			exitwithstatus.Message("checkpoint file error: %s", err)
		}
	}
	log.Infof("checkpoints: max height: %d", checkpoints.MaxHeight())

	// the chain boundary
	localNode := newNode(params)

	// service node registry restored from its snapshot
	log.Info("initialise service node registry")
	registry := servicenode.New(params, localNode, snapshotStore{}, nil, logger.New("servicenode"))
	err = registry.Init()
	if nil != err {
		log.Criticalf("service node registry error: %s", err)
		exitwithstatus.Message("service node registry error: %s", err)
	}
	log.Infof("service node registry height: %d", registry.Height())

	// transaction pool restored from the transactions pool
	log.Info("initialise transaction pool")
	poolLog := logger.New("txpool")
	pool := txpool.New(params, localNode, txpool.NewStore(), nil, theConfiguration.Pool.MaxWeight, poolLog)
	err = pool.Init()
	if nil != err {
		log.Criticalf("transaction pool error: %s", err)
		exitwithstatus.Message("transaction pool error: %s", err)
	}
	log.Infof("stem transaction mining: %v", theConfiguration.Pool.MineStemTxes)

	// background processes: stuck transaction sweep, relay pacing
	// and the extra checkpoint sources
	processes := background.Processes{
		pool.NewSweeper(),
		pool.NewRelayPacer(func(batch []txpool.RelayableTx) {
			for _, item := range batch {
				poolLog.Infof("relay: %s as %s", item.ID, item.Method)
			}
		}),
	}

	if "" != theConfiguration.Checkpoints.File {
		watcher, err := checkpoints.NewWatcher(theConfiguration.Checkpoints.File, checkpointLog)
		if nil != err {
			log.Criticalf("checkpoint watcher error: %s", err)
			exitwithstatus.Message("checkpoint watcher error: %s", err)
		}
		processes = append(processes, watcher)
	}

	if len(theConfiguration.Checkpoints.DNSDomains) > 0 {
		dns, err := checkpoints.NewDNS(theConfiguration.Checkpoints.DNSDomains, checkpoint.LookupTXT, checkpointLog)
		if nil != err {
			log.Criticalf("checkpoint dns error: %s", err)
			exitwithstatus.Message("checkpoint dns error: %s", err)
		}
		processes = append(processes, dns)
	}

	started := background.Start(processes, nil)
	defer started.Stop()

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
