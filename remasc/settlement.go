package remasc

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/opera-remasc/inter"
	"github.com/rony4d/opera-remasc/opera"
)

// CreditKind tells what a credit pays for.
type CreditKind uint8

const (
	// ProtocolFee is the protocol share of a payout.
	ProtocolFee CreditKind = iota
	// PublisherFee pays the miner of the block that included a sibling.
	PublisherFee
	// MinerShare pays the canonical miner of the settled height.
	MinerShare
	// SiblingShare pays the miner of a sibling of the settled height.
	SiblingShare
)

func (k CreditKind) String() string {
	switch k {
	case ProtocolFee:
		return "protocol"
	case PublisherFee:
		return "publisher"
	case MinerShare:
		return "miner"
	case SiblingShare:
		return "sibling"
	default:
		return "unknown"
	}
}

// Credit is one balance transfer out of the fee holding account.
type Credit struct {
	To     common.Address
	Amount *big.Int
	Kind   CreditKind
}

// Burns splits the value burned by a round by cause.
type Burns struct {
	Rounding      *big.Int // truncation of the publisher split and the share split
	Punishment    *big.Int // selection rule punishments
	LateInclusion *big.Int // late sibling inclusion
}

// Total returns the sum of all burns.
func (b Burns) Total() *big.Int {
	total := new(big.Int).Add(b.Rounding, b.Punishment)
	return total.Add(total, b.LateInclusion)
}

// Settlement is the outcome of one settlement round.
type Settlement struct {
	Height       idx.Block
	Payout       *big.Int
	ProtocolFee  *big.Int
	PublisherFee *big.Int // total publisher fee before the per-sibling split
	Share        *big.Int // per participant share before punishments
	Siblings     int
	Verdict      Verdict
	Credits      []Credit
	Burns        Burns
	Punished     []common.Address
}

// Paid returns the sum of all credits.
func (s *Settlement) Paid() *big.Int {
	total := new(big.Int)
	for _, c := range s.Credits {
		total.Add(total, c.Amount)
	}
	return total
}

// settle splits a payout between the protocol, the publishers and the
// participants of a height. It does not touch any state: the caller takes
// the payout from the pool and books the burns.
func settle(rules opera.RemascRules, height idx.Block, canonical inter.Header, siblings []inter.Sibling, payout *big.Int) *Settlement {
	s := &Settlement{
		Height:       height,
		Payout:       new(big.Int).Set(payout),
		PublisherFee: new(big.Int),
		Share:        new(big.Int),
		Siblings:     len(siblings),
		Burns: Burns{
			Rounding:      new(big.Int),
			Punishment:    new(big.Int),
			LateInclusion: new(big.Int),
		},
	}

	s.ProtocolFee = new(big.Int).Div(payout, u64(rules.ProtocolFeeDivisor))
	s.credit(rules.ProtocolFeeAddress, s.ProtocolFee, ProtocolFee)
	remaining := new(big.Int).Sub(payout, s.ProtocolFee)

	if len(siblings) == 0 {
		s.Share.Set(remaining)
		s.Verdict = EvaluateSelectionRule(CandidateOf(canonical), nil)
		s.credit(canonical.Miner, remaining, MinerShare)
		return s
	}

	n := u64(uint64(len(siblings)))
	s.PublisherFee.Div(remaining, u64(rules.PublisherFeeDivisor))
	perPublisher, publisherRest := new(big.Int).QuoRem(s.PublisherFee, n, new(big.Int))
	for _, sib := range siblings {
		s.credit(sib.Publisher, perPublisher, PublisherFee)
	}
	s.Burns.Rounding.Add(s.Burns.Rounding, publisherRest)
	remaining.Sub(remaining, s.PublisherFee)

	participants := new(big.Int).Add(n, common.Big1)
	shareRest := new(big.Int)
	s.Share.QuoRem(remaining, participants, shareRest)
	s.Burns.Rounding.Add(s.Burns.Rounding, shareRest)

	candidates := make([]Candidate, len(siblings))
	for i, sib := range siblings {
		candidates[i] = CandidateOf(sib.Header())
	}
	s.Verdict = EvaluateSelectionRule(CandidateOf(canonical), candidates)

	s.credit(canonical.Miner, s.punish(rules, 0, canonical.Miner), MinerShare)
	for i, sib := range siblings {
		amount := s.punish(rules, i+1, sib.Miner)
		if late := sib.Lateness(); late > 0 {
			penalty := new(big.Int).Mul(amount, u64(uint64(late)))
			penalty.Div(penalty, u64(rules.LateInclusionDivisor))
			if penalty.Cmp(amount) > 0 {
				penalty.Set(amount)
			}
			amount.Sub(amount, penalty)
			s.Burns.LateInclusion.Add(s.Burns.LateInclusion, penalty)
		}
		s.credit(sib.Miner, amount, SiblingShare)
	}
	return s
}

// punish returns the share of participant i after the selection rule
// punishment, booking the punishment as burned.
func (s *Settlement) punish(rules opera.RemascRules, i int, miner common.Address) *big.Int {
	amount := new(big.Int).Set(s.Share)
	if !s.Verdict.Dominated[i] {
		return amount
	}
	punishment := new(big.Int).Div(s.Share, u64(rules.PunishmentDivisor))
	amount.Sub(amount, punishment)
	s.Burns.Punishment.Add(s.Burns.Punishment, punishment)
	s.Punished = append(s.Punished, miner)
	return amount
}

func (s *Settlement) credit(to common.Address, amount *big.Int, kind CreditKind) {
	if amount.Sign() <= 0 {
		return
	}
	s.Credits = append(s.Credits, Credit{To: to, Amount: new(big.Int).Set(amount), Kind: kind})
}

func u64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
