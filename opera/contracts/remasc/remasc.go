// Package remasc holds the well-known addresses of the reward manager.
//
// Overview:
//
//	Every block pays its transaction fees into the reward manager account
//	(ContractAddress) instead of crediting the block miner directly. The
//	settlement engine later pays miners, sibling miners, publishers and the
//	protocol out of that account. The account is reserved: it has no code and
//	no key, so the only way value leaves it is a settlement round.
//
// Balance Model:
//   - Collected fees that are not paid out yet stay in the account
//   - Burned amounts also stay in the account forever
//   - Value sent to the account by a plain transfer is never paid out
package remasc

import (
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ContractAddress is the reserved fee holding account.
	// Address: 0x0000000000000000000000000000000001000008
	ContractAddress = common.HexToAddress("0x0000000000000000000000000000000001000008")

	// ProtocolFeeAddress receives the protocol share of every mainnet/testnet payout.
	ProtocolFeeAddress = common.HexToAddress("0x14d3065c8eb89895f4df12450ec6b130049f8034")

	// FakeProtocolFeeAddress receives the protocol share on fake networks.
	FakeProtocolFeeAddress = common.HexToAddress("0x00000000000000000000000000000000000fee00")
)
