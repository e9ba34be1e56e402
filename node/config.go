// Package node holds the node-wide Config and the small pieces of
// glue (data-directory layout, defaults) that cmd/fullnoded needs
// before it can open the stores and start the Chaser. Everything
// network- and RPC-facing lives outside this core; this package only
// carries the ambient configuration surface.
package node

import (
	"os"
	"path/filepath"
)

// Config is the node-wide configuration surface, parsed by
// cmd/fullnoded from flags and an INI config file via
// github.com/jessevdk/go-flags, the same library EXCCoin-exccd's node
// binary uses.
type Config struct {
	DataDir           string `long:"datadir" description:"Directory to store data"`
	Network           string `long:"network" description:"Network to connect to: mainnet, testnet, regtest"`
	MaxPeers          int    `long:"maxpeers" description:"Max number of inbound and outbound peers"`
	AssumeValidHeight uint32 `long:"assumevalidheight" description:"Height below which ScriptEngine execution is skipped"`
	PruneTarget       uint32 `long:"prune" description:"Target size in heights to retain on disk; 0 disables pruning (archival)"`
	DebugLevel        string `long:"debuglevel" description:"Logging level: trace, debug, info, warn, error, critical"`
}

// DefaultDataDir returns ~/.fullnoded, the same per-user layout the
// teacher's node/config.go computes for its own default.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".fullnoded"
	}
	return filepath.Join(home, ".fullnoded")
}

// DefaultConfig returns the configuration cmd/fullnoded starts from
// before flag/INI overrides are applied.
func DefaultConfig() Config {
	return Config{
		DataDir:    DefaultDataDir(),
		Network:    "mainnet",
		MaxPeers:   64,
		DebugLevel: "info",
	}
}

// ChainstateDir and the paths below are the on-disk chainstate layout
// (blockstore.Open lays out {DataDir}/blocks itself).
func (c Config) ChainstateDir() string {
	return filepath.Join(c.DataDir, "chainstate")
}

func (c Config) UtxoDBPath() string {
	return filepath.Join(c.ChainstateDir(), "utxo.db")
}

func (c Config) BlockIndexDBPath() string {
	return filepath.Join(c.ChainstateDir(), "blocks.db")
}
