package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// State is a read only snapshot of registry wide accounting.
type State struct {
	Owner              common.Address `json:"owner"`
	Paused             bool           `json:"paused"`
	NumTasks           int            `json:"num_tasks"`
	NextTaskID         uint64         `json:"next_task_id"`
	TotalPremium       *big.Int       `json:"total_premium"`
	OwnerBalance       *big.Int       `json:"owner_balance"`
	ExpectedBalance    *big.Int       `json:"expected_balance"`
	ConfigCount        uint32         `json:"config_count"`
	LatestConfigHeight uint64         `json:"latest_config_height"`
	ConfigDigest       common.Hash    `json:"config_digest"`
	Height             uint64         `json:"height"`
}

// TransmitterInfo is the view of one transmitter, with its share of the premium pool
// that has not been collected yet folded into Balance.
type TransmitterInfo struct {
	Address       common.Address `json:"address"`
	Active        bool           `json:"active"`
	Index         uint8          `json:"index"`
	Balance       *big.Int       `json:"balance"`
	LastCollected *big.Int       `json:"last_collected"`
	Payee         common.Address `json:"payee"`
}
