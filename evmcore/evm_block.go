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
// This file converts Ethereum blocks (with their uncles) into the settlement
// view of a block: height, hash, miner and paid fees.
//
// Key concepts:
//   - EvmHeader/EvmBlock: the minimal EVM block shape the settlement reads
//   - Uncles: Ethereum's uncle headers are the settlement siblings
//   - Fees: the fee value is not part of a header, it comes from execution
//
// Usage:
//   evmBlock := ConvertFromEthBlock(ethBlock, fees)
//   settlementBlock := evmBlock.ToBlock()

package evmcore

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rony4d/opera-remasc/inter"
)

// EvmHeader is an EVM block header as seen by the settlement.
type EvmHeader struct {
	Number     *big.Int       // Block number (height in the chain)
	Hash       common.Hash    // Block hash
	ParentHash common.Hash    // Hash of the parent block
	Root       common.Hash    // State root after the block
	Coinbase   common.Address // Miner of the block

	// Fees is the fee value the block paid into the fee holding account.
	Fees *big.Int
}

// EvmBlock is a canonical block with the headers of the uncles it includes.
type EvmBlock struct {
	EvmHeader
	Uncles []*EvmHeader
}

// FeeIndex resolves the fees a block paid, by block hash. Fees of uncles are
// known from their own execution on the fork they were mined on.
type FeeIndex map[common.Hash]*big.Int

// ConvertFromEthHeader converts an Ethereum header.
func ConvertFromEthHeader(h *types.Header, fees *big.Int) *EvmHeader {
	return &EvmHeader{
		Number:     new(big.Int).Set(h.Number),
		Hash:       h.Hash(),
		ParentHash: h.ParentHash,
		Root:       h.Root,
		Coinbase:   h.Coinbase,
		Fees:       fees,
	}
}

// ConvertFromEthBlock converts an Ethereum block and its uncles. Blocks
// missing from the index are read as paying no fees.
func ConvertFromEthBlock(b *types.Block, fees FeeIndex) *EvmBlock {
	block := &EvmBlock{
		EvmHeader: *ConvertFromEthHeader(b.Header(), fees[b.Hash()]),
	}
	for _, u := range b.Uncles() {
		block.Uncles = append(block.Uncles, ConvertFromEthHeader(u, fees[u.Hash()]))
	}
	return block
}

// ToHeader returns the settlement header.
func (h *EvmHeader) ToHeader() inter.Header {
	fees := new(big.Int)
	if h.Fees != nil {
		fees.Set(h.Fees)
	}
	return inter.Header{
		Number:   idx.Block(h.Number.Uint64()),
		Hash:     h.Hash,
		Miner:    h.Coinbase,
		PaidFees: fees,
	}
}

// ToBlock returns the settlement block, uncles becoming siblings in order.
func (b *EvmBlock) ToBlock() inter.Block {
	block := inter.Block{Header: b.EvmHeader.ToHeader()}
	for _, u := range b.Uncles {
		block.Siblings = append(block.Siblings, u.ToHeader())
	}
	return block
}
