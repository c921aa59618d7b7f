package integration

import (
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"

	"github.com/rony4d/opera-remasc/evmcore"
	"github.com/rony4d/opera-remasc/inter"
	"github.com/rony4d/opera-remasc/opera"
	"github.com/rony4d/opera-remasc/remasc"
)

var stateRootKey = []byte("state-root")

// Chain wires an account state, a settlement store and an engine together and
// plays the part of the execution engine: it pays every block's fees into the
// fee holding account before the settlement step runs.
type Chain struct {
	Rules  opera.Rules
	Engine *remasc.Engine
	Ledger *evmcore.StateLedger

	stateDB  ethdb.Database
	settleDB ethdb.KeyValueStore

	log log.Logger
}

// MakeChain opens (or creates) a chain in datadir. The genesis balances are
// applied only when the chain is created.
func MakeChain(rules opera.Rules, preset PresetConfig, datadir string, genesis map[common.Address]*big.Int) (*Chain, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	stateDB, settleDB, err := openDBs(preset, datadir)
	if err != nil {
		return nil, err
	}
	c := &Chain{
		Rules:    rules,
		stateDB:  stateDB,
		settleDB: settleDB,
		log:      log.New("module", "chain", "network", rules.Name),
	}

	statedb, err := c.openState(genesis)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Ledger = evmcore.NewStateLedger(statedb)

	c.Engine, err = remasc.New(rules.Remasc, c.Ledger, remasc.NewStore(settleDB))
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func openDBs(preset PresetConfig, datadir string) (ethdb.Database, ethdb.KeyValueStore, error) {
	switch preset.Backend {
	case BackendMemory:
		return rawdb.NewMemoryDatabase(), memorydb.New(), nil
	case BackendLevelDB:
		cache, handles := preset.CacheMB/2, preset.Handles/2
		stateDB, err := rawdb.NewLevelDBDatabase(filepath.Join(datadir, "chaindata"), cache, handles, "remasc/chaindata/", false)
		if err != nil {
			return nil, nil, fmt.Errorf("open state database: %w", err)
		}
		settleDB, err := leveldb.New(filepath.Join(datadir, "settlement"), cache, handles, "remasc/settlement/", false)
		if err != nil {
			stateDB.Close()
			return nil, nil, fmt.Errorf("open settlement database: %w", err)
		}
		return stateDB, settleDB, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", preset.Backend)
	}
}

func (c *Chain) openState(genesis map[common.Address]*big.Int) (*state.StateDB, error) {
	ok, err := c.settleDB.Has(stateRootKey)
	if err != nil {
		return nil, err
	}
	if ok {
		raw, err := c.settleDB.Get(stateRootKey)
		if err != nil {
			return nil, err
		}
		return evmcore.NewStateDB(c.stateDB, common.BytesToHash(raw))
	}

	statedb, err := evmcore.NewStateDB(c.stateDB, common.Hash{})
	if err != nil {
		return nil, err
	}
	header, err := evmcore.ApplyFakeGenesis(statedb, genesis)
	if err != nil {
		return nil, err
	}
	c.log.Info("Applied genesis", "root", header.Root, "accounts", len(genesis))
	return statedb, c.settleDB.Put(stateRootKey, header.Root.Bytes())
}

// ApplyBlock pays the block's fees into the fee holding account and runs the
// settlement step. On failure the fee payment is reverted.
func (c *Chain) ApplyBlock(block inter.Block) (*remasc.Result, error) {
	holder := c.Rules.Remasc.FeeHolderAddress
	fees := block.TotalFees()
	if err := c.Ledger.AddBalance(holder, fees); err != nil {
		return nil, err
	}

	res, err := c.Engine.ProcessBlock(block)
	if err != nil {
		if rerr := c.Ledger.SubBalance(holder, fees); rerr != nil {
			c.log.Error("Failed to revert fee payment", "block", block.Number, "err", rerr)
		}
		return nil, err
	}

	root, err := c.Ledger.Commit()
	if err != nil {
		return nil, fmt.Errorf("commit state: %w", err)
	}
	if err := c.settleDB.Put(stateRootKey, root.Bytes()); err != nil {
		return nil, fmt.Errorf("write state root: %w", err)
	}
	return res, nil
}

// Balance returns the balance of an account.
func (c *Chain) Balance(addr common.Address) *big.Int {
	balance, err := c.Ledger.GetBalance(addr)
	if err != nil {
		c.log.Warn("Failed to read balance", "addr", addr, "err", err)
		return new(big.Int)
	}
	return balance
}

// Close releases the databases.
func (c *Chain) Close() error {
	var first error
	if err := c.stateDB.Close(); err != nil {
		first = err
	}
	if err := c.settleDB.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
