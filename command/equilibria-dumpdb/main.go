// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"reflect"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/misterr-labs/Equilibria/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// stop the pool scan once enough records were printed
var errScanDone = fmt.Errorf("scan done")

func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	app := cli.NewApp()
	app.Name = "equilibria-dumpdb"
	app.Usage = "inspect the daemon's LevelDB pools"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "file, f",
			Value: "",
			Usage: "*database `PATH` as set in the daemon configuration",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "list",
			Usage:     "list the pool tags",
			ArgsUsage: "\n   (* = required)",
			Action:    runList,
		},
		{
			Name:      "dump",
			Usage:     "dump records from one pool",
			ArgsUsage: "tag [key-prefix-hex]\n   (* = required)",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "count, c",
					Value: 10,
					Usage: " maximum records to print `N`",
				},
				cli.BoolFlag{
					Name:  "ascii, a",
					Usage: " print values as ASCII instead of hex",
				},
			},
			Action: runDump,
		},
	}

	err := app.Run(os.Args)
	if nil != err {
		exitwithstatus.Message("terminated with error: %s", err)
	}
}

// print every pool tag with its field name
func runList(c *cli.Context) error {
	poolType := reflect.TypeOf(storage.Pool)

	fmt.Printf(" tags:\n")
	for i := 0; i < poolType.NumField(); i += 1 {
		fieldInfo := poolType.Field(i)
		prefixTag := fieldInfo.Tag.Get("prefix")
		fmt.Printf("       %s  %s\n", prefixTag, fieldInfo.Name)
	}
	return nil
}

// print records from a single pool in key order
func runDump(c *cli.Context) error {
	filename := c.GlobalString("file")
	if "" == filename {
		return fmt.Errorf("missing file option")
	}

	args := c.Args()
	if 0 == len(args) {
		return fmt.Errorf("missing tag argument")
	}
	tag := args[0]

	prefix := []byte(nil)
	if len(args) > 1 {
		var err error
		prefix, err = hex.DecodeString(args[1])
		if nil != err {
			return fmt.Errorf("convert prefix error: %s", err)
		}
	}

	count := c.Int("count")
	if count < 1 {
		return fmt.Errorf("invalid count: %d", count)
	}
	ascii := c.Bool("ascii")

	logging := logger.Configuration{
		Directory: ".",
		File:      "equilibria-dumpdb.log",
		Size:      1048576,
		Count:     10,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logging); nil != err {
		return fmt.Errorf("logger setup failed with error: %s", err)
	}
	defer logger.Finalise()

	err := storage.Initialise(filename, storage.ReadOnly)
	if nil != err {
		return fmt.Errorf("storage setup failed with error: %s", err)
	}
	defer storage.Finalise()

	pool := poolByTag(tag)
	if nil == pool {
		return fmt.Errorf("no pool corresponding to: %q", tag)
	}

	n := 0
	err = pool.ForEach(func(key []byte, value []byte) error {
		if !bytes.HasPrefix(key, prefix) {
			return nil
		}
		if ascii {
			fmt.Printf("%x: %q\n", key, value)
		} else {
			fmt.Printf("%x: %x\n", key, value)
		}
		n += 1
		if n >= count {
			return errScanDone
		}
		return nil
	})
	if nil != err && errScanDone != err {
		return err
	}

	fmt.Printf("records: %d\n", n)
	return nil
}

// locate a pool handle by its prefix tag
func poolByTag(tag string) *storage.PoolHandle {
	poolType := reflect.TypeOf(storage.Pool)
	poolValue := reflect.ValueOf(storage.Pool)

	for i := 0; i < poolType.NumField(); i += 1 {
		if tag == poolType.Field(i).Tag.Get("prefix") {
			return poolValue.Field(i).Interface().(*storage.PoolHandle)
		}
	}
	return nil
}
