// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - read daemon settings from a Lua file
//
// the file is a Lua program whose returned table is mapped onto the
// supplied Go structure; base Lua remains available so a
// configuration can read other files or call getenv for values
// supplied by the environment.
package configuration
