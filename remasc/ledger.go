package remasc

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the account state the engine moves balances in. Implementations
// must not partially apply a failed call.
type Ledger interface {
	GetBalance(addr common.Address) (*big.Int, error)
	AddBalance(addr common.Address, amount *big.Int) error
	SubBalance(addr common.Address, amount *big.Int) error
}

// transfer moves amount from one account to another.
type transfer struct {
	from, to common.Address
	amount   *big.Int
}

func (t transfer) apply(l Ledger) error {
	if err := l.SubBalance(t.from, t.amount); err != nil {
		return err
	}
	if err := l.AddBalance(t.to, t.amount); err != nil {
		// put the debit back, the transfer did not happen
		if rerr := l.AddBalance(t.from, t.amount); rerr != nil {
			return fmt.Errorf("%v (rollback: %v)", err, rerr)
		}
		return err
	}
	return nil
}

func (t transfer) revert(l Ledger) error {
	return transfer{from: t.to, to: t.from, amount: t.amount}.apply(l)
}

// ledgerTx applies transfers one by one and can revert all applied ones.
type ledgerTx struct {
	ledger  Ledger
	applied []transfer
}

func (tx *ledgerTx) apply(t transfer) error {
	if t.amount.Sign() == 0 {
		return nil
	}
	if err := t.apply(tx.ledger); err != nil {
		return err
	}
	tx.applied = append(tx.applied, t)
	return nil
}

// rollback reverts applied transfers in reverse order.
func (tx *ledgerTx) rollback() error {
	for i := len(tx.applied) - 1; i >= 0; i-- {
		if err := tx.applied[i].revert(tx.ledger); err != nil {
			return err
		}
	}
	tx.applied = nil
	return nil
}
