// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/misterr-labs/Equilibria/chain"
	"github.com/misterr-labs/Equilibria/configuration"
	"github.com/misterr-labs/Equilibria/fault"
)

// basic defaults, relative items are resolved against DataDirectory
const (
	defaultDataDirectory = "" // must be set in the configuration file

	defaultLevelDBDirectory = "data"

	defaultLogDirectory = "log"
	defaultLogFile      = "equilibriad.log"
	defaultLogCount     = 10          // number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// path expanded or calculated defaults
var defaultLogLevels = map[string]string{
	logger.DefaultTag: "critical",
}

// DatabaseType - the LevelDB location
type DatabaseType struct {
	Directory string
	Name      string
}

// CheckpointsType - where extra checkpoints come from
type CheckpointsType struct {
	File       string
	DNSDomains []string
}

// PoolType - transaction pool tuning
type PoolType struct {
	MaxWeight    uint64
	MineStemTxes bool
}

// Configuration - the daemon settings from the Lua file
type Configuration struct {
	DataDirectory string
	PidFile       string
	Chain         string
	Database      DatabaseType
	Checkpoints   CheckpointsType
	Pool          PoolType
	ProfileHTTP   string
	Logging       logger.Configuration
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		Chain:         chain.Mainnet,

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      "", // default is the chain name
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); nil != err {
		return nil, err
	}

	options.Chain = strings.ToLower(options.Chain)
	if !chain.Valid(options.Chain) {
		return nil, fault.ErrInvalidChain
	}

	// database file defaults to the chain name so that switching
	// chains can never open the wrong database
	if "" == options.Database.Name {
		options.Database.Name = options.Chain
	}

	// ensure absolute data directory
	switch options.DataDirectory {
	case "", "~":
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	case ".":
		options.DataDirectory = dataDirectory // same directory as the configuration file
	default:
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = configuration.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths cannot be blank
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.Checkpoints.File,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = configuration.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// these must be simple file names i.e. must not contain a path
	// separator; the logger joins its own directory and file
	fileItems := []*string{
		&options.Database.Name,
		&options.Logging.File,
	}
	for _, f := range fileItems {
		switch filepath.Dir(*f) {
		case "", ".":
		default:
			return nil, fmt.Errorf("file: %q is not plain name", *f)
		}
	}

	// make database name absolute
	options.Database.Name = filepath.Join(options.Database.Directory, options.Database.Name)

	return options, nil
}
