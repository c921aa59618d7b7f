// Package inter defines the core data structures exchanged between the block
// execution layer and the fee settlement engine. This file contains the Header
// and Block structures the execution engine hands over once per block.
//
// Key concepts:
//   - Header: identity of a mined block (height, hash, miner) and the fees it
//     paid into the fee holding account
//   - Siblings: headers of blocks mined at an earlier height that lost the
//     race to become canonical, referenced by the including block
//
// Usage:
//   block := inter.Block{
//       Header:   inter.Header{Number: 12, Hash: h, Miner: coinbase, PaidFees: fees},
//       Siblings: []inter.Header{uncle},
//   }
//   total := block.TotalFees()

package inter

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// Header identifies a mined block. It is the only part of a block the
// settlement engine looks at.
type Header struct {
	// Number is the height the block was mined at.
	Number idx.Block

	// Hash is the block hash. It breaks fee ties in the selection rule, so it
	// must be the real hash of the block and not an index.
	Hash common.Hash

	// Miner is the coinbase of the block; settlement shares are credited to it.
	Miner common.Address

	// PaidFees is the fee value the block paid into the fee holding account.
	// nil is read as zero.
	PaidFees *big.Int
}

// Block is a canonical block as seen by the settlement engine: its own header
// plus the headers of the sibling blocks it includes.
type Block struct {
	Header

	// Siblings are headers of non-canonical blocks mined at lower heights.
	// The order is kept: it decides the order credits are produced in.
	Siblings []Header
}

// Fees returns the paid fees, never nil.
func (h Header) Fees() *big.Int {
	if h.PaidFees == nil {
		return new(big.Int)
	}
	return h.PaidFees
}

// Copy returns a deep copy of the header.
func (h Header) Copy() Header {
	cp := h
	if h.PaidFees != nil {
		cp.PaidFees = new(big.Int).Set(h.PaidFees)
	}
	return cp
}

// Copy returns a deep copy of the block.
func (b Block) Copy() Block {
	cp := Block{Header: b.Header.Copy()}
	if b.Siblings != nil {
		cp.Siblings = make([]Header, len(b.Siblings))
		for i, s := range b.Siblings {
			cp.Siblings[i] = s.Copy()
		}
	}
	return cp
}

// TotalFees is the fee value collected by the block itself. Sibling fees are
// never collected: they were paid on a chain that did not survive.
func (b Block) TotalFees() *big.Int {
	return new(big.Int).Set(b.Fees())
}
