// Package opera defines the network rules and configuration parameters of the
// fee settlement engine.
//
// This package provides:
//   - Network identification constants (MainNet, TestNet, FakeNet)
//   - Settlement (REMASC) rules: maturity depth, synthetic span and the divisors
//     used to split every payout
//   - Well-known addresses the settlement rounds pay from and to
//
// The Rules type serves as the central configuration structure that defines
// all consensus-critical settlement parameters for a given network deployment.
// Rules are immutable once an engine has been built from them.

package opera

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/opera-remasc/opera/contracts/remasc"
)

// Network identification constants
const (
	// MainNetworkID is the chain ID for the mainnet (0xfa = 250 in decimal)
	MainNetworkID uint64 = 0xfa

	// TestNetworkID is the chain ID for the testnet (0xfa2 = 4002 in decimal)
	TestNetworkID uint64 = 0xfa2

	// FakeNetworkID is the chain ID for local/fake networks used in testing (0xfa3 = 4003 in decimal)
	FakeNetworkID uint64 = 0xfa3
)

var (
	// ErrZeroDivisor is returned by Validate when a divisor (or the synthetic
	// span, which is a divisor of the reward pool) is zero.
	ErrZeroDivisor = errors.New("settlement divisor must be non-zero")

	// ErrSameAddress is returned when the protocol fee recipient is the fee
	// holding account itself, which would make protocol fees unobservable.
	ErrSameAddress = errors.New("protocol fee address equals the fee holder address")
)

// Rules describes the complete configuration for a network.
// This is the main type used throughout the codebase to access network parameters.
type Rules struct {
	Name      string // Network name identifier (e.g., "main", "test", "fake")
	NetworkID uint64 // Chain ID used to tell networks apart

	// Remasc options - fee collection and settlement
	Remasc RemascRules
}

// RemascRules holds the parameters of the reward manager (REMASC): when a
// height matures, how the reward pool is smoothed and how every payout is
// divided between the protocol, publishers and miners.
type RemascRules struct {
	// MaturityDepth is how many blocks after height P the settlement of P runs.
	// Block H settles height H-MaturityDepth.
	MaturityDepth idx.Block

	// SyntheticSpan smooths payouts: each round pays out 1/SyntheticSpan of
	// the pending reward pool.
	SyntheticSpan uint64

	// MinSettlementHeight is the first height that is paid out. Lower heights
	// mature without a payout while the reward pool fills up.
	MinSettlementHeight idx.Block

	// ProtocolFeeDivisor selects the protocol share of a payout (payout / divisor).
	ProtocolFeeDivisor uint64

	// PublisherFeeDivisor selects the share paid to the publishers of siblings.
	PublisherFeeDivisor uint64

	// PunishmentDivisor selects the part of a share burned when a participant
	// lost the selection rule to a strictly preferred competitor.
	PunishmentDivisor uint64

	// LateInclusionDivisor scales the burn applied to siblings included after
	// the first block that could have included them.
	LateInclusionDivisor uint64

	// ProtocolFeeAddress receives the protocol fee of every round.
	ProtocolFeeAddress common.Address

	// FeeHolderAddress is the account collected fees are held in and all
	// settlement credits are paid from.
	FeeHolderAddress common.Address
}

// MainNetRules returns the configuration rules for mainnet.
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		Remasc:    DefaultRemascRules(),
	}
}

// TestNetRules returns the configuration rules for testnet.
// Testnet matures blocks much sooner so that payouts are observable within minutes.
func TestNetRules() Rules {
	return Rules{
		Name:      "test",
		NetworkID: TestNetworkID,
		Remasc:    TestNetRemascRules(),
	}
}

// FakeNetRules returns the configuration rules for fake/local networks.
// Fake networks use tiny windows so that every settlement path can be
// exercised with a handful of blocks:
//   - maturity depth of 10 blocks
//   - synthetic span (and first paid height) of 5
//   - a stronger late inclusion divisor (20)
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Remasc:    FakeNetRemascRules(),
	}
}

// DefaultRemascRules returns the mainnet settlement configuration.
func DefaultRemascRules() RemascRules {
	return RemascRules{
		MaturityDepth:        4000, // roughly one day of blocks
		SyntheticSpan:        2640, // every round pays 1/2640 of the pool
		MinSettlementHeight:  2640, // no payouts until the pool had a full span to fill
		ProtocolFeeDivisor:   5,    // 20% of each payout
		PublisherFeeDivisor:  10,   // 10% of what remains, when siblings exist
		PunishmentDivisor:    10,   // 10% of a losing participant's share
		LateInclusionDivisor: 10,   // 10% per block of inclusion delay
		ProtocolFeeAddress:   remasc.ProtocolFeeAddress,
		FeeHolderAddress:     remasc.ContractAddress,
	}
}

// TestNetRemascRules returns the testnet settlement configuration.
func TestNetRemascRules() RemascRules {
	cfg := DefaultRemascRules()
	cfg.MaturityDepth = 60
	cfg.SyntheticSpan = 30
	cfg.MinSettlementHeight = 30
	return cfg
}

// FakeNetRemascRules returns accelerated settlement rules for fake networks.
func FakeNetRemascRules() RemascRules {
	cfg := DefaultRemascRules()
	cfg.MaturityDepth = 10
	cfg.SyntheticSpan = 5
	cfg.MinSettlementHeight = 5
	cfg.LateInclusionDivisor = 20
	cfg.ProtocolFeeAddress = remasc.FakeProtocolFeeAddress
	return cfg
}

// Validate checks the invariants every engine relies on. A failure here is a
// configuration error and must stop the node from starting.
func (r RemascRules) Validate() error {
	divisors := []struct {
		name  string
		value uint64
	}{
		{"SyntheticSpan", r.SyntheticSpan},
		{"ProtocolFeeDivisor", r.ProtocolFeeDivisor},
		{"PublisherFeeDivisor", r.PublisherFeeDivisor},
		{"PunishmentDivisor", r.PunishmentDivisor},
		{"LateInclusionDivisor", r.LateInclusionDivisor},
	}
	for _, d := range divisors {
		if d.value == 0 {
			return fmt.Errorf("%w: %s", ErrZeroDivisor, d.name)
		}
	}
	if r.ProtocolFeeAddress == r.FeeHolderAddress {
		return ErrSameAddress
	}
	return nil
}

// Validate checks the rules of every subsystem.
func (r Rules) Validate() error {
	if err := r.Remasc.Validate(); err != nil {
		return fmt.Errorf("%s rules: %w", r.Name, err)
	}
	return nil
}

// Copy creates a copy of Rules.
func (r Rules) Copy() Rules {
	cp := r
	return cp
}

// String returns a JSON representation of Rules for debugging and logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}

// RulesByName returns the preset rules of a named network.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "main", "mainnet":
		return MainNetRules(), nil
	case "test", "testnet":
		return TestNetRules(), nil
	case "fake", "fakenet":
		return FakeNetRules(), nil
	default:
		return Rules{}, fmt.Errorf("unknown network: %q (valid: main, test, fake)", name)
	}
}
