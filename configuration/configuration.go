// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"path/filepath"
	"reflect"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/misterr-labs/Equilibria/fault"
)

// ParseConfigurationFile - read and execute a Lua file and assign the
// returned table to a configuration structure
//
// the file runs with the full Lua base library so it can read other
// files or call getenv; the global "arg" table carries the file name
// in arg[0] like the Lua interpreter does
func ParseConfigurationFile(fileName string, config interface{}) error {

	// since interface{} is untyped, verify type compatibility at run-time
	rv := reflect.ValueOf(config)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fault.ErrInvalidStructPointer
	}
	if rv.Elem().Kind() != reflect.Struct {
		return fault.ErrInvalidStructPointer
	}

	L := lua.NewState()
	defer L.Close()

	L.OpenLibs()

	arg := &lua.LTable{}
	arg.Insert(0, lua.LString(fileName))
	L.SetGlobal("arg", arg)

	if err := L.DoFile(fileName); nil != err {
		return err
	}

	table, ok := L.Get(L.GetTop()).(*lua.LTable)
	if !ok {
		return fault.ErrInvalidStructPointer
	}

	mapper := gluamapper.Mapper{Option: gluamapper.Option{
		NameFunc: func(s string) string {
			return s
		},
		TagName: "gluamapper",
	}}
	return mapper.Map(table, config)
}

// EnsureAbsolute - resolve a possibly relative file name against a
// directory
//
// a name that is already absolute passes through untouched
func EnsureAbsolute(directory string, fileName string) string {
	if !filepath.IsAbs(fileName) {
		fileName = filepath.Join(directory, fileName)
	}
	return filepath.Clean(fileName)
}
