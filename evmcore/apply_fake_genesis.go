// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package evmcore provides adapters between Ethereum's block and state types
// and the settlement engine.
// This file handles fake genesis state creation for testing and replays.

package evmcore

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
)

// NewStateDB opens the state at root on top of a key-value database.
// An empty root opens a fresh state.
func NewStateDB(db ethdb.Database, root common.Hash) (*state.StateDB, error) {
	return state.New(root, state.NewDatabase(db), nil)
}

// NewMemoryStateDB returns an empty state backed by memory.
func NewMemoryStateDB() *state.StateDB {
	statedb, err := NewStateDB(rawdb.NewMemoryDatabase(), common.Hash{})
	if err != nil {
		// an empty in-memory state can't fail to open
		panic(err)
	}
	return statedb
}

// ApplyFakeGenesis initializes a fake genesis state with the specified account balances.
//
// Process:
//  1. Sets initial balances for all specified accounts
//  2. Commits the state to the database and computes the state root
//  3. Creates a genesis header (block number 0) with the computed state root
//
// Fees collected before the settlement engine starts must not be put into
// the fee holding account here: the engine pays out only what it collected.
func ApplyFakeGenesis(statedb *state.StateDB, balances map[common.Address]*big.Int) (*EvmHeader, error) {
	for acc, balance := range balances {
		statedb.SetBalance(acc, balance)
	}

	root, err := flush(statedb, true)
	if err != nil {
		return nil, err
	}

	return genesisHeader(root), nil
}

// flush commits state changes to the database and returns the state root hash.
//
// This function performs a two-phase commit:
//  1. Commits pending state changes to the state trie
//  2. Commits the trie to the underlying database
//
// The 'clean' parameter controls whether to perform a clean commit:
//   - clean=true: Full commit, used for genesis initialization
//   - clean=false: Incremental commit with trie capping for memory management
func flush(statedb *state.StateDB, clean bool) (root common.Hash, err error) {
	root, err = statedb.Commit(clean)
	if err != nil {
		return
	}

	err = statedb.Database().TrieDB().Commit(root, false, nil)
	if err != nil {
		return
	}

	if !clean {
		err = statedb.Database().TrieDB().Cap(0)
	}

	return
}

// genesisHeader creates the header of block 0 with the given state root.
func genesisHeader(root common.Hash) *EvmHeader {
	return &EvmHeader{
		Number: big.NewInt(0),
		Root:   root,
		Fees:   new(big.Int),
	}
}

// MustApplyFakeGenesis is a convenience wrapper around ApplyFakeGenesis that panics on error.
func MustApplyFakeGenesis(statedb *state.StateDB, balances map[common.Address]*big.Int) *EvmHeader {
	genesis, err := ApplyFakeGenesis(statedb, balances)
	if err != nil {
		log.Crit("ApplyFakeGenesis", "err", err)
	}
	return genesis
}

// FakeKey generates a deterministic fake private key for testing purposes.
// Given the same input 'n', it will always generate the same key.
func FakeKey(n int) *ecdsa.PrivateKey {
	seed := crypto.Keccak256(common.BigToHash(big.NewInt(int64(n))).Bytes())

	key, err := crypto.ToECDSA(seed)
	if err != nil {
		panic(err)
	}

	return key
}

// FakeMiner returns the address of FakeKey(n).
func FakeMiner(n int) common.Address {
	return crypto.PubkeyToAddress(FakeKey(n).PublicKey)
}
