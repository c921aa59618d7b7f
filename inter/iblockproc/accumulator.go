package iblockproc

import (
	"math/big"
)

// RewardAccumulator holds the two settlement counters.
//
// Reward is the pool of collected fees not paid out yet. Burned is the total
// value removed from circulation by rounding, punishment and late inclusion.
// Both live in the fee holding account: its balance covers Reward+Burned.
type RewardAccumulator struct {
	Reward *big.Int
	Burned *big.Int
}

// NewRewardAccumulator returns the genesis accumulator with both counters at zero.
func NewRewardAccumulator() RewardAccumulator {
	return RewardAccumulator{
		Reward: new(big.Int),
		Burned: new(big.Int),
	}
}

// Collect adds fees to the reward pool.
func (a *RewardAccumulator) Collect(fees *big.Int) {
	a.init()
	if fees == nil || fees.Sign() <= 0 {
		return
	}
	a.Reward.Add(a.Reward, fees)
}

// Payout removes the share of one settlement round, Reward/span, from the
// pool and returns it. The truncated remainder stays in the pool.
func (a *RewardAccumulator) Payout(span uint64) *big.Int {
	a.init()
	payout := new(big.Int).Div(a.Reward, new(big.Int).SetUint64(span))
	a.Reward.Sub(a.Reward, payout)
	return payout
}

// Burn adds to the burned counter. Negative amounts are ignored: the
// counter never decreases.
func (a *RewardAccumulator) Burn(amount *big.Int) {
	a.init()
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	a.Burned.Add(a.Burned, amount)
}

// Total returns Reward+Burned, the balance the fee holding account must cover.
func (a RewardAccumulator) Total() *big.Int {
	total := new(big.Int)
	if a.Reward != nil {
		total.Add(total, a.Reward)
	}
	if a.Burned != nil {
		total.Add(total, a.Burned)
	}
	return total
}

// Copy returns a deep copy of the accumulator.
func (a RewardAccumulator) Copy() RewardAccumulator {
	cp := NewRewardAccumulator()
	if a.Reward != nil {
		cp.Reward.Set(a.Reward)
	}
	if a.Burned != nil {
		cp.Burned.Set(a.Burned)
	}
	return cp
}

func (a *RewardAccumulator) init() {
	if a.Reward == nil {
		a.Reward = new(big.Int)
	}
	if a.Burned == nil {
		a.Burned = new(big.Int)
	}
}
