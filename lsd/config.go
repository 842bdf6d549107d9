// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lsd

// Config is the configurable parameters of the host network. Default values are used for anything
// left empty. Solo and test networks may override them once at start-up.

var (
	blockInterval   uint64 = 10  // 10 seconds
	epochLength     uint64 = 360 // 360 blocks, 1 hour
	freshnessWindow uint64 = 30  // 30 blocks, 5 minutes

	locked bool
)

type Config struct {
	BlockInterval   uint64 `json:"blockInterval" yaml:"blockInterval"`     // time interval between two consecutive blocks.
	EpochLength     uint64 `json:"epochLength" yaml:"epochLength"`         // number of blocks per epoch.
	FreshnessWindow uint64 `json:"freshnessWindow" yaml:"freshnessWindow"` // default number of blocks a provider snapshot stays fresh.
}

// SetConfig sets the config.
// If the config is locked, will panic.
func SetConfig(cfg Config) {
	if locked {
		panic("config is locked, cannot be set")
	}

	if cfg.BlockInterval != 0 {
		blockInterval = cfg.BlockInterval
	}
	if cfg.EpochLength != 0 {
		epochLength = cfg.EpochLength
	}
	if cfg.FreshnessWindow != 0 {
		freshnessWindow = cfg.FreshnessWindow
	}
}

// LockConfig prevents any further change of the config.
func LockConfig() {
	locked = true
}

func BlockInterval() uint64 {
	return blockInterval
}

func EpochLength() uint64 {
	return epochLength
}

func FreshnessWindow() uint64 {
	return freshnessWindow
}

// EpochOf returns the epoch the given block height belongs to.
func EpochOf(height uint64) uint64 {
	return height / epochLength
}
