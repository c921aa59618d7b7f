// Package remasc implements the reward manager: the per-block settlement of
// transaction fees.
//
// Every block pays its fees into the fee holding account. The engine adds
// them to a reward pool and, once a height is MaturityDepth blocks deep, pays
// 1/SyntheticSpan of the pool to the participants of that height:
//
//   - the protocol fee recipient (payout / ProtocolFeeDivisor)
//   - the publishers of the height's siblings (remaining / PublisherFeeDivisor,
//     split per sibling)
//   - the canonical miner and every sibling miner, one even share each
//
// Shares of participants that lost the selection rule to a strictly preferred
// competitor, and of siblings included late, are partly burned. Every
// truncated remainder is either kept in the pool or burned, never lost.
//
// An Engine belongs to exactly one chain. A speculative execution on a fork
// must use its own engine, see Engine.Fork.
package remasc

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/rony4d/opera-remasc/inter"
	"github.com/rony4d/opera-remasc/inter/iblockproc"
	"github.com/rony4d/opera-remasc/opera"
)

// Result reports what processing one block did.
type Result struct {
	Block     idx.Block
	Collected *big.Int

	// Recorded and Duplicates are the sibling hashes that were recorded and
	// the ones skipped because they were already known.
	Recorded   []common.Hash
	Duplicates []common.Hash

	// Matured is the height that matured with this block, 0 if none.
	Matured idx.Block
	// Settlement is the round paid for Matured. It is nil when no height
	// matured or the matured height is below MinSettlementHeight.
	Settlement *Settlement

	StateHash hash.Hash
}

// Engine runs the settlement of one chain.
type Engine struct {
	mu sync.Mutex

	rules  opera.RemascRules
	ledger Ledger
	store  *Store
	state  iblockproc.BlockState

	log log.Logger
}

// New builds an engine. A nil store keeps the state in memory only;
// otherwise the state is loaded from the store and every block is committed
// to it.
func New(rules opera.RemascRules, ledger Ledger, store *Store) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, errors.New("remasc: nil ledger")
	}

	state := iblockproc.NewBlockState()
	if store != nil {
		var err error
		if state, err = store.Load(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
	}

	return &Engine{
		rules:  rules,
		ledger: ledger,
		store:  store,
		state:  state,
		log:    log.New("module", "remasc"),
	}, nil
}

// Fork returns an in-memory engine starting from a copy of the current state,
// moving balances in the given ledger. Nothing is shared with the receiver.
func (e *Engine) Fork(ledger Ledger) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()

	return &Engine{
		rules:  e.rules,
		ledger: ledger,
		state:  e.state.Copy(),
		log:    e.log.New("fork", true),
	}
}

// Rules returns the rules the engine was built with.
func (e *Engine) Rules() opera.RemascRules {
	return e.rules
}

// State returns a copy of the current settlement state.
func (e *Engine) State() iblockproc.BlockState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.Copy()
}

// StateHash returns the fingerprint of the current settlement state.
func (e *Engine) StateHash() hash.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.Hash()
}

// ProcessBlock runs the settlement step of one block. Blocks must be passed in
// height order starting at 1. On error nothing changed: neither the engine
// state, the store nor the ledger.
func (e *Engine) ProcessBlock(block inter.Block) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(block); err != nil {
		e.log.Warn("Rejected block", "block", block.Number, "hash", block.Hash, "err", err)
		return nil, err
	}

	next := e.state.Copy()
	res := &Result{
		Block:     block.Number,
		Collected: block.TotalFees(),
	}

	next.LastBlock = block.Number
	next.Pending.Put(block.Header)
	for _, h := range block.Siblings {
		if !next.Siblings.Record(inter.NewSibling(h, block.Header)) {
			e.log.Warn("Skipped duplicate sibling", "block", block.Number, "sibling", h.Hash, "height", h.Number)
			res.Duplicates = append(res.Duplicates, h.Hash)
			continue
		}
		res.Recorded = append(res.Recorded, h.Hash)
	}
	next.Rewards.Collect(res.Collected)

	if height, ok := e.maturedHeight(block.Number); ok {
		res.Matured = height
		canonical, found := next.Pending.Take(height)
		if !found {
			return nil, fmt.Errorf("canonical header of height %d is not pending", height)
		}
		siblings := next.Siblings.Take(height)
		if height < e.rules.MinSettlementHeight {
			e.log.Debug("Closed height without payout", "height", height, "siblings", len(siblings), "pool", next.Rewards.Reward)
		} else {
			payout := next.Rewards.Payout(e.rules.SyntheticSpan)
			res.Settlement = settle(e.rules, height, canonical, siblings, payout)
			next.Rewards.Burn(res.Settlement.Burns.Total())
		}
	}

	tx := &ledgerTx{ledger: e.ledger}
	if res.Settlement != nil {
		if err := e.pay(tx, res.Settlement); err != nil {
			e.log.Error("Settlement failed", "block", block.Number, "height", res.Matured, "err", err)
			return nil, err
		}
	}
	if e.store != nil {
		if err := e.store.Commit(&e.state, &next); err != nil {
			if rerr := tx.rollback(); rerr != nil {
				e.log.Error("Failed to revert settlement credits", "block", block.Number, "err", rerr)
			}
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
	}

	e.state = next
	res.StateHash = next.Hash()
	if s := res.Settlement; s != nil {
		e.logSettlement(s)
	}
	return res, nil
}

// maturedHeight returns the height that matures with block h.
func (e *Engine) maturedHeight(h idx.Block) (idx.Block, bool) {
	if h <= e.rules.MaturityDepth {
		return 0, false
	}
	return h - e.rules.MaturityDepth, true
}

func (e *Engine) validate(block inter.Block) error {
	if want := e.state.LastBlock + 1; block.Number != want {
		return fmt.Errorf("%w: got %d, want %d", ErrUnexpectedBlock, block.Number, want)
	}
	if err := e.checkHeader(block.Header); err != nil {
		return err
	}

	settling, settles := e.maturedHeight(block.Number)
	for _, s := range block.Siblings {
		if err := e.checkHeader(s); err != nil {
			return err
		}
		switch {
		case s.Number == 0 || s.Number >= block.Number:
			return fmt.Errorf("%w: %s at height %d included by block %d", ErrInvalidSibling, s.Hash, s.Number, block.Number)
		case settles && s.Number < settling:
			return fmt.Errorf("%w: %s at height %d is already settled", ErrInvalidSibling, s.Hash, s.Number)
		case s.Hash == block.Hash:
			return fmt.Errorf("%w: %s is the including block", ErrInvalidSibling, s.Hash)
		}
		if canonical, ok := e.state.Pending.Get(s.Number); ok && canonical.Hash == s.Hash {
			return fmt.Errorf("%w: %s is canonical at height %d", ErrInvalidSibling, s.Hash, s.Number)
		}
	}
	return nil
}

func (e *Engine) checkHeader(h inter.Header) error {
	if h.Fees().Sign() < 0 {
		return fmt.Errorf("%w: %s pays %s", ErrInvalidFees, h.Hash, h.PaidFees)
	}
	if h.Miner == e.rules.FeeHolderAddress {
		return fmt.Errorf("%w: %s", ErrReservedMiner, h.Hash)
	}
	return nil
}

// pay moves the credits of a round out of the fee holding account. Either
// all credits are applied or none.
func (e *Engine) pay(tx *ledgerTx, s *Settlement) error {
	holder := e.rules.FeeHolderAddress
	balance, err := e.ledger.GetBalance(holder)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedger, err)
	}
	if paid := s.Paid(); balance.Cmp(paid) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientHolderBalance, balance, paid)
	}
	for _, c := range s.Credits {
		err := tx.apply(transfer{from: holder, to: c.To, amount: c.Amount})
		if err == nil {
			continue
		}
		if rerr := tx.rollback(); rerr != nil {
			return fmt.Errorf("%w: %v (rollback: %v)", ErrLedger, err, rerr)
		}
		return fmt.Errorf("%w: %v", ErrLedger, err)
	}
	return nil
}

func (e *Engine) logSettlement(s *Settlement) {
	e.log.Info("Settled height", "height", s.Height, "payout", s.Payout, "protocol", s.ProtocolFee,
		"publishers", s.PublisherFee, "share", s.Share, "siblings", s.Siblings, "credits", len(s.Credits))
	if burned := s.Burns.Total(); burned.Sign() > 0 {
		e.log.Info("Burned settlement remainder", "height", s.Height, "rounding", s.Burns.Rounding,
			"punishment", s.Burns.Punishment, "late", s.Burns.LateInclusion)
	}
	for _, addr := range s.Punished {
		e.log.Debug("Punished selection rule loser", "height", s.Height, "miner", addr)
	}
}
