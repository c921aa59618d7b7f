package integration

import (
	"io/ioutil"
	"math/big"
	"os"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/opera-remasc/evmcore"
	"github.com/rony4d/opera-remasc/inter"
	"github.com/rony4d/opera-remasc/opera"
	"github.com/rony4d/opera-remasc/remasc"
)

var _ remasc.Ledger = (*evmcore.StateLedger)(nil)

func testBlock(n idx.Block, siblings ...inter.Header) inter.Block {
	fees := int64(0)
	if n <= 5 {
		fees = 21000
	}
	return inter.Block{
		Header: inter.Header{
			Number:   n,
			Hash:     common.BytesToHash([]byte{0xc0, byte(n)}),
			Miner:    evmcore.FakeMiner(int(n)),
			PaidFees: big.NewInt(fees),
		},
		Siblings: siblings,
	}
}

func testSibling(i int) inter.Header {
	return inter.Header{
		Number:   5,
		Hash:     common.BytesToHash([]byte{0xd0, byte(i)}),
		Miner:    evmcore.FakeMiner(100 + i),
		PaidFees: big.NewInt(21000),
	}
}

func applyBlocks(t *testing.T, c *Chain, from, to idx.Block) {
	for n := from; n <= to; n++ {
		b := testBlock(n)
		if n == 6 {
			b.Siblings = []inter.Header{testSibling(0), testSibling(1)}
		}
		_, err := c.ApplyBlock(b)
		require.NoError(t, err, "block %d", n)
	}
}

func TestMakeChain_Memory(t *testing.T) {
	rules := opera.FakeNetRules()
	genesis := map[common.Address]*big.Int{evmcore.FakeMiner(1): big.NewInt(7)}

	c, err := MakeChain(rules, MemoryPreset(), "", genesis)
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, "7", c.Balance(evmcore.FakeMiner(1)).String())

	applyBlocks(t, c, 1, 15)
	holder := rules.Remasc.FeeHolderAddress
	state := c.Engine.State()
	require.Equal(t, idx.Block(15), state.LastBlock)
	require.Equal(t, state.Rewards.Total().String(), c.Balance(holder).String())
	require.Equal(t, "4200", c.Balance(rules.Remasc.ProtocolFeeAddress).String())

	// the canonical miner of height 5 won over both siblings
	require.Equal(t, "5040", c.Balance(evmcore.FakeMiner(5)).String())
}

func TestChain_ApplyBlockRevertsFees(t *testing.T) {
	rules := opera.FakeNetRules()
	c, err := MakeChain(rules, MemoryPreset(), "", nil)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.ApplyBlock(testBlock(2))
	require.ErrorIs(t, err, remasc.ErrUnexpectedBlock)
	require.Equal(t, 0, c.Balance(rules.Remasc.FeeHolderAddress).Sign())
}

func TestMakeChain_LevelDBReopen(t *testing.T) {
	rules := opera.FakeNetRules()
	dir, err := ioutil.TempDir("", "remasc-chain")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	genesis := map[common.Address]*big.Int{evmcore.FakeMiner(1): big.NewInt(7)}

	c, err := MakeChain(rules, LitePreset(), dir, genesis)
	require.NoError(t, err)
	applyBlocks(t, c, 1, 15)
	hash := c.Engine.StateHash()
	minerBalance := c.Balance(evmcore.FakeMiner(5)).String()
	require.NoError(t, c.Close())

	// the genesis is not applied twice
	c, err = MakeChain(rules, LitePreset(), dir, map[common.Address]*big.Int{evmcore.FakeMiner(1): big.NewInt(1000)})
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, hash, c.Engine.StateHash())
	require.Equal(t, minerBalance, c.Balance(evmcore.FakeMiner(5)).String())
	require.Equal(t, "7", c.Balance(evmcore.FakeMiner(1)).String())

	applyBlocks(t, c, 16, 16)
	require.Equal(t, idx.Block(16), c.Engine.State().LastBlock)
}

func TestMakeChain_InvalidRules(t *testing.T) {
	rules := opera.FakeNetRules()
	rules.Remasc.ProtocolFeeDivisor = 0

	_, err := MakeChain(rules, MemoryPreset(), "", nil)
	require.ErrorIs(t, err, opera.ErrZeroDivisor)
}
