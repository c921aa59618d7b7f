package evmcore

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
)

var (
	// ErrInsufficientBalance is returned when a debit exceeds the account balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNegativeAmount is returned for negative balance changes.
	ErrNegativeAmount = errors.New("negative amount")
)

// StateLedger moves settlement credits in an EVM state.
type StateLedger struct {
	statedb *state.StateDB
}

// NewStateLedger wraps a state.
func NewStateLedger(statedb *state.StateDB) *StateLedger {
	return &StateLedger{statedb: statedb}
}

// GetBalance returns a copy of the account balance.
func (l *StateLedger) GetBalance(addr common.Address) (*big.Int, error) {
	if err := l.statedb.Error(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(l.statedb.GetBalance(addr)), nil
}

// AddBalance credits an account.
func (l *StateLedger) AddBalance(addr common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if err := l.statedb.Error(); err != nil {
		return err
	}
	l.statedb.AddBalance(addr, amount)
	return nil
}

// SubBalance debits an account. Overdrafts are refused.
func (l *StateLedger) SubBalance(addr common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if err := l.statedb.Error(); err != nil {
		return err
	}
	if balance := l.statedb.GetBalance(addr); balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, addr, balance, amount)
	}
	l.statedb.SubBalance(addr, amount)
	return nil
}

// Commit writes the state to its database and returns the new root.
func (l *StateLedger) Commit() (common.Hash, error) {
	return flush(l.statedb, false)
}
