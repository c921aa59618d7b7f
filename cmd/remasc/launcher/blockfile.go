package launcher

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/rony4d/opera-remasc/evmcore"
	"github.com/rony4d/opera-remasc/integration"
)

// blockFile is the replay input. Amounts are decimal or 0x-prefixed hex strings:
//
//	{
//	  "genesis": {"0x...": "1000000"},
//	  "blocks": [
//	    {"number": 1, "hash": "0x...", "miner": "0x...", "fees": "21000",
//	     "siblings": [{"number": 1, "hash": "0x...", "miner": "0x...", "fees": "0"}]}
//	  ]
//	}
type blockFile struct {
	Genesis map[common.Address]*math.HexOrDecimal256 `json:"genesis"`
	Blocks  []blockJSON                               `json:"blocks"`
}

type headerJSON struct {
	Number uint64                `json:"number"`
	Hash   common.Hash           `json:"hash"`
	Miner  common.Address        `json:"miner"`
	Fees   *math.HexOrDecimal256 `json:"fees"`
}

type blockJSON struct {
	headerJSON
	Siblings []headerJSON `json:"siblings"`
}

func readBlockFile(path string) (*blockFile, error) {
	var f blockFile
	if err := loadJSON(path, &f); err != nil {
		return nil, fmt.Errorf("read block file %s: %w", path, err)
	}
	return &f, nil
}

func (f *blockFile) genesisBalances() map[common.Address]*big.Int {
	balances := make(map[common.Address]*big.Int, len(f.Genesis))
	for addr, v := range f.Genesis {
		balances[addr] = amount(v)
	}
	return balances
}

// accounts returns every address the file mentions, sorted.
func (f *blockFile) accounts() []common.Address {
	set := make(map[common.Address]struct{})
	for addr := range f.Genesis {
		set[addr] = struct{}{}
	}
	for _, b := range f.Blocks {
		set[b.Miner] = struct{}{}
		for _, s := range b.Siblings {
			set[s.Miner] = struct{}{}
		}
	}
	return sortedAddresses(set)
}

func (h headerJSON) toEvmHeader() *evmcore.EvmHeader {
	return &evmcore.EvmHeader{
		Number:   new(big.Int).SetUint64(h.Number),
		Hash:     h.Hash,
		Coinbase: h.Miner,
		Fees:     amount(h.Fees),
	}
}

func (b blockJSON) toEvmBlock() *evmcore.EvmBlock {
	block := &evmcore.EvmBlock{EvmHeader: *b.toEvmHeader()}
	for _, s := range b.Siblings {
		block.Uncles = append(block.Uncles, s.toEvmHeader())
	}
	return block
}

func amount(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(v))
}

// report is the summary printed after a replay or by the state command.
type report struct {
	Network   string            `json:"network"`
	LastBlock uint64            `json:"lastBlock"`
	Reward    string            `json:"reward"`
	Burned    string            `json:"burned"`
	Pending   int               `json:"pendingHeights"`
	Siblings  int               `json:"pendingSiblings"`
	StateHash string            `json:"stateHash"`
	Settled   int               `json:"settledRounds,omitempty"`
	Balances  map[string]string `json:"balances"`
}

func makeReport(chain *integration.Chain, accounts []common.Address) report {
	state := chain.Engine.State()
	r := report{
		Network:   chain.Rules.Name,
		LastBlock: uint64(state.LastBlock),
		Reward:    state.Rewards.Reward.String(),
		Burned:    state.Rewards.Burned.String(),
		Pending:   state.Pending.Len(),
		Siblings:  state.Siblings.Len(),
		StateHash: state.Hash().Hex(),
		Balances:  make(map[string]string, len(accounts)),
	}
	for _, addr := range accounts {
		r.Balances[addr.Hex()] = chain.Balance(addr).String()
	}
	return r
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedAddresses(set map[common.Address]struct{}) []common.Address {
	out := make([]common.Address, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}
