package remasc

import "errors"

var (
	// ErrUnexpectedBlock is returned when a block is not the successor of the
	// last processed block.
	ErrUnexpectedBlock = errors.New("unexpected block height")

	// ErrInvalidSibling is returned when a block includes a sibling header
	// that cannot be a sibling of any unsettled height.
	ErrInvalidSibling = errors.New("invalid sibling")

	// ErrInvalidFees is returned for negative fee values.
	ErrInvalidFees = errors.New("invalid paid fees")

	// ErrReservedMiner is returned when a miner address is the fee holding account.
	ErrReservedMiner = errors.New("miner is the fee holding account")

	// ErrInsufficientHolderBalance is returned when the fee holding account
	// cannot cover the credits of a settlement round.
	ErrInsufficientHolderBalance = errors.New("fee holder balance too low")

	// ErrLedger wraps failures of the Ledger. They are retryable: no
	// settlement state was advanced.
	ErrLedger = errors.New("ledger failure")

	// ErrStore wraps failures to persist the settlement state.
	ErrStore = errors.New("settlement store failure")
)
