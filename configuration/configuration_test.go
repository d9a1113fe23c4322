// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/configuration"
	"github.com/misterr-labs/Equilibria/fault"
)

type testConfiguration struct {
	Chain         string
	DataDirectory string
	Database      string
	Pool          struct {
		MaxWeight int64
	}
	Domains []string
}

const sampleConfiguration = `
local M = {}

M.Chain = "fakechain"
M.DataDirectory = arg[0]
M.Database = "chain.leveldb"

M.Pool = {
    MaxWeight = 648000000,
}

M.Domains = {
    "checkpoints.example.com",
    "backup.example.org",
}

return M
`

func writeConfiguration(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "equilibriad.conf")
	require.NoError(t, os.WriteFile(name, []byte(content), 0600))
	return name
}

func TestParseConfigurationFile(t *testing.T) {
	name := writeConfiguration(t, sampleConfiguration)

	config := &testConfiguration{}
	require.NoError(t, configuration.ParseConfigurationFile(name, config))

	assert.Equal(t, "fakechain", config.Chain)
	assert.Equal(t, "chain.leveldb", config.Database)
	assert.Equal(t, int64(648000000), config.Pool.MaxWeight)
	assert.Equal(t, []string{"checkpoints.example.com", "backup.example.org"}, config.Domains)

	// arg[0] carries the configuration file name into the script
	assert.Equal(t, name, config.DataDirectory)
}

func TestParseConfigurationFileRejectsNonPointer(t *testing.T) {
	name := writeConfiguration(t, sampleConfiguration)

	assert.Equal(t, fault.ErrInvalidStructPointer,
		configuration.ParseConfigurationFile(name, testConfiguration{}))

	var nilConfig *testConfiguration
	assert.Equal(t, fault.ErrInvalidStructPointer,
		configuration.ParseConfigurationFile(name, nilConfig))
}

func TestParseConfigurationFileMissingFile(t *testing.T) {
	config := &testConfiguration{}
	assert.Error(t, configuration.ParseConfigurationFile(
		filepath.Join(t.TempDir(), "no-such.conf"), config))
}

func TestParseConfigurationFileBadReturn(t *testing.T) {
	name := writeConfiguration(t, `return 42`)

	config := &testConfiguration{}
	assert.Equal(t, fault.ErrInvalidStructPointer,
		configuration.ParseConfigurationFile(name, config))
}

func TestEnsureAbsolute(t *testing.T) {
	assert.Equal(t, "/var/lib/equilibria/chain.leveldb",
		configuration.EnsureAbsolute("/var/lib/equilibria", "chain.leveldb"))
	assert.Equal(t, "/tmp/absolute.db",
		configuration.EnsureAbsolute("/var/lib/equilibria", "/tmp/absolute.db"))
}
