package remasc

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/opera-remasc/inter"
)

// Candidate is a block competing for one height under the selection rule.
type Candidate struct {
	Hash common.Hash
	Fees *big.Int
}

// Verdict is the outcome of the selection rule over one height.
type Verdict struct {
	// CanonicalViolatesRule is true if some sibling precedes the canonical block.
	CanonicalViolatesRule bool

	// SiblingWouldHaveWon[i] is true if sibling i precedes the canonical block.
	SiblingWouldHaveWon []bool

	// Dominated[0] is the canonical block, Dominated[i+1] is sibling i. A
	// member is dominated if any other member strictly precedes it.
	Dominated []bool
}

// CandidateOf returns the candidate of a header.
func CandidateOf(h inter.Header) Candidate {
	return Candidate{Hash: h.Hash, Fees: h.Fees()}
}

// Precedes reports whether a is preferred over b: strictly greater fees
// first, then the lexicographically smaller hash.
func Precedes(a, b Candidate) bool {
	if c := fees(a).Cmp(fees(b)); c != 0 {
		return c > 0
	}
	return bytes.Compare(a.Hash[:], b.Hash[:]) < 0
}

// EvaluateSelectionRule applies the selection rule to the set made of the
// canonical block and its siblings.
func EvaluateSelectionRule(canonical Candidate, siblings []Candidate) Verdict {
	members := make([]Candidate, 0, len(siblings)+1)
	members = append(members, canonical)
	members = append(members, siblings...)

	v := Verdict{
		SiblingWouldHaveWon: make([]bool, len(siblings)),
		Dominated:           make([]bool, len(members)),
	}
	for i, s := range siblings {
		if Precedes(s, canonical) {
			v.SiblingWouldHaveWon[i] = true
			v.CanonicalViolatesRule = true
		}
	}
	for i := range members {
		for j := range members {
			if i != j && Precedes(members[j], members[i]) {
				v.Dominated[i] = true
				break
			}
		}
	}
	return v
}

func fees(c Candidate) *big.Int {
	if c.Fees == nil {
		return new(big.Int)
	}
	return c.Fees
}
