package inter

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// Sibling is the record kept for a sibling block from the moment a canonical
// block includes it until its height is settled.
type Sibling struct {
	Hash     common.Hash
	Miner    common.Address
	Number   idx.Block // height the sibling was mined at
	PaidFees *big.Int

	// IncludedAt is the height of the canonical block that included the sibling.
	IncludedAt idx.Block
	// Publisher is the miner of the including block; it earns the publisher fee.
	Publisher common.Address
}

// NewSibling builds the record of a sibling header included by the given block.
func NewSibling(h Header, includedBy Header) Sibling {
	return Sibling{
		Hash:       h.Hash,
		Miner:      h.Miner,
		Number:     h.Number,
		PaidFees:   new(big.Int).Set(h.Fees()),
		IncludedAt: includedBy.Number,
		Publisher:  includedBy.Miner,
	}
}

// Header returns the header the sibling was recorded from.
func (s Sibling) Header() Header {
	return Header{
		Number:   s.Number,
		Hash:     s.Hash,
		Miner:    s.Miner,
		PaidFees: s.PaidFees,
	}
}

// Lateness is the number of blocks between the first height that could have
// included the sibling (Number+1) and the height that did.
func (s Sibling) Lateness() idx.Block {
	if s.IncludedAt <= s.Number+1 {
		return 0
	}
	return s.IncludedAt - s.Number - 1
}

// Copy returns a deep copy of the record.
func (s Sibling) Copy() Sibling {
	cp := s
	if s.PaidFees != nil {
		cp.PaidFees = new(big.Int).Set(s.PaidFees)
	}
	return cp
}
