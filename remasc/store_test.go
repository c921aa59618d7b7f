package remasc

import (
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/opera-remasc/inter"
	"github.com/rony4d/opera-remasc/inter/iblockproc"
	"github.com/rony4d/opera-remasc/opera"
)

func TestStore_LoadEmpty(t *testing.T) {
	state, err := NewStore(memorydb.New()).Load()
	require.NoError(t, err)
	require.Equal(t, iblockproc.NewBlockState().Hash(), state.Hash())
}

func TestStore_CommitDiff(t *testing.T) {
	db := memorydb.New()
	store := NewStore(db)

	genesis := iblockproc.NewBlockState()
	first := genesis.Copy()
	first.LastBlock = 6
	first.Rewards.Collect(big.NewInt(5000))
	for n := idx.Block(1); n <= 6; n++ {
		first.Pending.Put(canonicalAt(n, 10))
	}
	for i := 0; i < 3; i++ {
		first.Siblings.Record(inter.NewSibling(siblingHeader(5, i, 1), canonicalAt(6, 0)))
	}
	first.Siblings.Record(inter.NewSibling(siblingHeader(4, 0, 1), canonicalAt(6, 0)))

	require.NoError(t, store.Commit(&genesis, &first))
	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, first.Hash(), loaded.Hash())

	// settle height 4, grow height 5
	second := first.Copy()
	second.LastBlock = 7
	second.Pending.Take(4)
	second.Pending.Put(canonicalAt(7, 0))
	second.Siblings.Take(4)
	second.Siblings.Record(inter.NewSibling(siblingHeader(5, 3, 1), canonicalAt(7, 0)))
	second.Rewards.Payout(5)
	second.Rewards.Burn(big.NewInt(3))

	require.NoError(t, store.Commit(&first, &second))
	loaded, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, second.Hash(), loaded.Hash())
	require.Len(t, loaded.Siblings.Get(5), 4)
	require.Empty(t, loaded.Siblings.Get(4))

	has, err := db.Has(makeKey(prefixPending, 4))
	require.NoError(t, err)
	require.False(t, has)
	has, err = db.Has(makeKey(prefixSiblings, 4))
	require.NoError(t, err)
	require.False(t, has)
}

func TestStore_CorruptMeta(t *testing.T) {
	db := memorydb.New()
	require.NoError(t, db.Put(metaKey, []byte{0xff, 0x01}))

	_, err := NewStore(db).Load()
	require.Error(t, err)

	_, err = New(opera.FakeNetRemascRules(), newMemLedger(), NewStore(db))
	require.True(t, errors.Is(err, ErrStore))
}
