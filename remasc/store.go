package remasc

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/opera-remasc/inter"
	"github.com/rony4d/opera-remasc/inter/iblockproc"
)

// Prefix constants of the settlement tables
const (
	prefixMeta byte = iota + 1
	prefixPending
	prefixSiblings
)

var metaKey = []byte{prefixMeta}

// storeMeta holds the scalar part of the settlement state.
type storeMeta struct {
	LastBlock idx.Block
	Reward    *big.Int
	Burned    *big.Int
}

// Store persists the settlement state in a key-value database, one record
// per unsettled height, so that a block only rewrites the heights it touched.
type Store struct {
	db ethdb.KeyValueStore
}

// NewStore wraps a key-value database. The database is not owned by the store.
func NewStore(db ethdb.KeyValueStore) *Store {
	return &Store{db: db}
}

// Load reads the persisted settlement state. An empty database yields the
// genesis state.
func (s *Store) Load() (iblockproc.BlockState, error) {
	state := iblockproc.NewBlockState()

	ok, err := s.db.Has(metaKey)
	if err != nil {
		return state, fmt.Errorf("read meta: %w", err)
	}
	if !ok {
		return state, nil
	}
	raw, err := s.db.Get(metaKey)
	if err != nil {
		return state, fmt.Errorf("read meta: %w", err)
	}
	var meta storeMeta
	if err := rlp.DecodeBytes(raw, &meta); err != nil {
		return state, fmt.Errorf("decode meta: %w", err)
	}
	state.LastBlock = meta.LastBlock
	state.Rewards.Collect(meta.Reward)
	state.Rewards.Burn(meta.Burned)

	err = s.forEach(prefixPending, func(value []byte) error {
		var h inter.Header
		if err := rlp.DecodeBytes(value, &h); err != nil {
			return fmt.Errorf("decode pending header: %w", err)
		}
		state.Pending.Put(h)
		return nil
	})
	if err != nil {
		return state, err
	}

	err = s.forEach(prefixSiblings, func(value []byte) error {
		var siblings []inter.Sibling
		if err := rlp.DecodeBytes(value, &siblings); err != nil {
			return fmt.Errorf("decode siblings: %w", err)
		}
		for _, sib := range siblings {
			state.Siblings.Record(sib)
		}
		return nil
	})
	return state, err
}

// Commit writes the transition from prev to next in one batch.
func (s *Store) Commit(prev, next *iblockproc.BlockState) error {
	batch := s.db.NewBatch()

	acc := next.Rewards.Copy()
	meta, err := rlp.EncodeToBytes(&storeMeta{
		LastBlock: next.LastBlock,
		Reward:    acc.Reward,
		Burned:    acc.Burned,
	})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := batch.Put(metaKey, meta); err != nil {
		return err
	}

	// canonical headers never change while pending: only adds and removals
	for _, h := range prev.Pending.Headers() {
		if _, ok := next.Pending.Get(h.Number); !ok {
			if err := batch.Delete(makeKey(prefixPending, h.Number)); err != nil {
				return err
			}
		}
	}
	for _, h := range next.Pending.Headers() {
		if _, ok := prev.Pending.Get(h.Number); ok {
			continue
		}
		raw, err := rlp.EncodeToBytes(&h)
		if err != nil {
			return fmt.Errorf("encode pending header: %w", err)
		}
		if err := batch.Put(makeKey(prefixPending, h.Number), raw); err != nil {
			return err
		}
	}

	// sibling lists only grow until their height is taken
	for _, height := range prev.Siblings.Heights() {
		if len(next.Siblings.Get(height)) == 0 {
			if err := batch.Delete(makeKey(prefixSiblings, height)); err != nil {
				return err
			}
		}
	}
	for _, e := range next.Siblings.Entries() {
		if len(prev.Siblings.Get(e.Height)) == len(e.Siblings) {
			continue
		}
		raw, err := rlp.EncodeToBytes(e.Siblings)
		if err != nil {
			return fmt.Errorf("encode siblings: %w", err)
		}
		if err := batch.Put(makeKey(prefixSiblings, e.Height), raw); err != nil {
			return err
		}
	}

	if err := batch.Write(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *Store) forEach(prefix byte, fn func(value []byte) error) error {
	it := s.db.NewIterator([]byte{prefix}, nil)
	defer it.Release()

	for it.Next() {
		if err := fn(it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

// makeKey creates a key from a prefix and a height
func makeKey(prefix byte, height idx.Block) []byte {
	return append([]byte{prefix}, bigendian.Uint64ToBytes(uint64(height))...)
}
