// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/misterr-labs/Equilibria/checkpoint"
	"github.com/misterr-labs/Equilibria/netparams"
)

// setup command handler
//
// commands that run before the configuration file is read
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "start", "run":
		return false // continue processing

	case "config-test", "cfg", "checkpoints", "cp":
		return false // defer processing until configuration is read

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--quiet] --config-file=FILE [[command|help] arguments...]\n\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help            (h)    - display this message\n")
		fmt.Printf("  version         (v)    - display version string\n")
		fmt.Printf("  config-test     (cfg)  - check the configuration file and display it\n")
		fmt.Printf("  checkpoints     (cp)   - display the loaded checkpoint table\n")
		fmt.Printf("  start           (run)  - just run the program, same as no arguments\n")
		fmt.Printf("                           for convenience when passing script arguments\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if nil != err {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	case "checkpoints", "cp":
		listCheckpoints(options)

	default: // unknown commands fall through to the main start up
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// print the built in plus file loaded checkpoint table
func listCheckpoints(options *Configuration) {
	params, err := netparams.ByName(options.Chain)
	if nil != err {
		exitwithstatus.Message("error: %s", err)
	}

	store := checkpoint.NewStore(params)
	if "" != options.Checkpoints.File {
		if err := logger.Initialise(options.Logging); nil != err {
			exitwithstatus.Message("logger setup failed with error: %s", err)
		}
		defer logger.Finalise()

		err := store.LoadFile(options.Checkpoints.File, logger.New("checkpoint"))
		if nil != err {
			exitwithstatus.Message("checkpoint file: %q error: %s", options.Checkpoints.File, err)
		}
	}

	for _, point := range store.Points() {
		fmt.Printf("%9d  %s\n", point.Height, point.Hash)
	}
}
