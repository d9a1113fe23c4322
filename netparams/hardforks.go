// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

// HardFork - one row of a fork schedule
//
// Time is the planned activation as a Unix timestamp; consensus keys
// off Height only
type HardFork struct {
	Version uint8
	Height  uint64
	Time    int64
}

var mainnetHardForks = []HardFork{
	{1, 1, 1541014386},
	{2, 8, 1541014391},
	{3, 100, 1541014463},
	{4, 45000, 1549695692},
	{5, 106950, 1560481469},
	{6, 181056, 1573931994},
	{7, 352846, 1595030400},
	{8, 426143, 1603945507},
	{9, 500000, 1612744443},
	{10, 548732, 1618779871},
	{11, 663269, 1632469944},
	{12, 841197, 1654028715},
	{13, 898176, 1660873980},
	{14, 936500, 1665518459},
	{15, 991430, 1672174800},
	{16, 1001320, 1673377200},
	{17, 1056414, 1680070995},
	{18, 1238350, 1704230052},
	{19, 1248886, 1705611030},
}

var testnetHardForks = []HardFork{
	{1, 1, 1341378000},
	{2, 8, 1445355000},
	{3, 10, 1472415034},
	{4, 11, 1472415035},
	{5, 12, 1551499880},
	{6, 13, 1571531327},
	{7, 14, 1581531327},
	{8, 15, 1591531327},
	{9, 75, 1612161143},
	{10, 125, 1692161143},
	{11, 126, 1632469944},
	{12, 150, 1692469950},
	{13, 200, 1692469985},
	{14, 250, 1692469995},
	{15, 300, 1671746400},
	{16, 350, 1673377200},
}

var stagenetHardForks = []HardFork{
	{1, 1, 1341378000},
}

// compressed schedule so tests can reach any rule set in a handful of
// blocks: version n activates at height n
var fakechainHardForks = func() []HardFork {
	forks := make([]HardFork, 19)
	for i := range forks {
		forks[i] = HardFork{uint8(i + 1), uint64(i + 1), 0}
	}
	return forks
}()

// ForkVersionAtHeight - the consensus rule set in force at a height
//
// heights below the first scheduled fork run version 1
func (params *Params) ForkVersionAtHeight(height uint64) uint8 {
	version := uint8(1)
	for _, fork := range params.hardForks {
		if fork.Height > height {
			break
		}
		version = fork.Version
	}
	return version
}

// ForkHeight - the activation height of a fork version
//
// second return is false if the version is not scheduled on this chain
func (params *Params) ForkHeight(version uint8) (uint64, bool) {
	for _, fork := range params.hardForks {
		if version == fork.Version {
			return fork.Height, true
		}
	}
	return 0, false
}

// HardForks - the full schedule, earliest first
func (params *Params) HardForks() []HardFork {
	forks := make([]HardFork, len(params.hardForks))
	copy(forks, params.hardForks)
	return forks
}
