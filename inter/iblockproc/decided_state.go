// Package iblockproc defines the structures and logic for processing inter-block state.
// This file (decided_state.go) contains the settlement state the fee engine
// maintains and transitions once per decided block:
// 1. RewardAccumulator: the reward pool and the burned counter.
// 2. SiblingRegistry: sibling records waiting for their height to settle.
// 3. PendingBlocks: canonical headers waiting for their height to settle.
// It also includes methods for hashing, copying and encoding this state.
package iblockproc

import (
	"crypto/sha256"
	"io"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/opera-remasc/inter"
)

// BlockState represents the settlement state of the chain after a block.
// It must be folded into the chain's state commitment: it decides balances.
type BlockState struct {
	// LastBlock is the height of the last processed block, 0 at genesis.
	LastBlock idx.Block

	// Rewards holds the reward pool and the burned counter.
	Rewards RewardAccumulator

	// Siblings holds sibling records of unsettled heights.
	Siblings SiblingRegistry

	// Pending holds canonical headers of unsettled heights.
	Pending PendingBlocks
}

// blockStateRLP is the canonical encoding of BlockState. Maps are flattened
// into slices ordered by height so that every node encodes the same bytes.
type blockStateRLP struct {
	LastBlock idx.Block
	Reward    *big.Int
	Burned    *big.Int
	Pending   []inter.Header
	Siblings  []SiblingEntry
}

// NewBlockState returns the genesis settlement state.
func NewBlockState() BlockState {
	return BlockState{
		Rewards:  NewRewardAccumulator(),
		Siblings: NewSiblingRegistry(),
		Pending:  NewPendingBlocks(),
	}
}

// Copy creates a deep copy of the BlockState, so that a settlement round can
// be computed on the copy and dropped on failure.
func (bs BlockState) Copy() BlockState {
	return BlockState{
		LastBlock: bs.LastBlock,
		Rewards:   bs.Rewards.Copy(),
		Siblings:  bs.Siblings.Copy(),
		Pending:   bs.Pending.Copy(),
	}
}

// Hash calculates the SHA256 hash of the RLP-encoded BlockState.
// This hash fingerprints the entire settlement state at this block.
func (bs BlockState) Hash() hash.Hash {
	hasher := sha256.New()
	err := rlp.Encode(hasher, &bs)
	if err != nil {
		panic("can't hash: " + err.Error())
	}
	return hash.BytesToHash(hasher.Sum(nil))
}

// EncodeRLP implements rlp.Encoder.
func (bs *BlockState) EncodeRLP(w io.Writer) error {
	acc := bs.Rewards.Copy()
	return rlp.Encode(w, &blockStateRLP{
		LastBlock: bs.LastBlock,
		Reward:    acc.Reward,
		Burned:    acc.Burned,
		Pending:   bs.Pending.Headers(),
		Siblings:  bs.Siblings.Entries(),
	})
}

// DecodeRLP implements rlp.Decoder.
func (bs *BlockState) DecodeRLP(s *rlp.Stream) error {
	var enc blockStateRLP
	if err := s.Decode(&enc); err != nil {
		return err
	}
	*bs = NewBlockState()
	bs.LastBlock = enc.LastBlock
	bs.Rewards.Collect(enc.Reward)
	bs.Rewards.Burn(enc.Burned)
	for _, h := range enc.Pending {
		bs.Pending.Put(h)
	}
	for _, e := range enc.Siblings {
		for _, sib := range e.Siblings {
			bs.Siblings.Record(sib)
		}
	}
	return nil
}
