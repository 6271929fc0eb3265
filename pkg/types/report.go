package types

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Signature is an (r, s, v) ECDSA signature over a report digest. V may be 0/1 or 27/28.
type Signature struct {
	R [32]byte `json:"r"`
	S [32]byte `json:"s"`
	V byte     `json:"v"`
}

// Bytes returns r || s || v.
func (s Signature) Bytes() []byte {
	out := make([]byte, 65)
	copy(out[:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != 65 {
		return sig, fmt.Errorf("signature must be 65 bytes, got %d", len(b))
	}
	copy(sig.R[:], b[:32])
	copy(sig.S[:], b[32:64])
	sig.V = b[64]
	return sig, nil
}

// ReportContext scopes a report to a configuration and a consensus round.
type ReportContext struct {
	ConfigDigest common.Hash `json:"config_digest"`
	Epoch        uint32      `json:"epoch"`
	Round        uint8       `json:"round"`
	ExtraHash    common.Hash `json:"extra_hash"`
}

// Words packs the context into the three 32 byte words that are appended to the report
// hash before signing. The second word carries epoch and round right aligned.
func (c ReportContext) Words() [3][32]byte {
	var words [3][32]byte
	words[0] = c.ConfigDigest
	binary.BigEndian.PutUint32(words[1][27:31], c.Epoch)
	words[1][31] = c.Round
	words[2] = c.ExtraHash
	return words
}

// ReportContextFromWords is the inverse of Words.
func ReportContextFromWords(words [3][32]byte) ReportContext {
	return ReportContext{
		ConfigDigest: words[0],
		Epoch:        binary.BigEndian.Uint32(words[1][27:31]),
		Round:        words[1][31],
		ExtraHash:    words[2],
	}
}

// Report is a batch of claimed executions priced at a shared gas and credit price.
// TaskIDs, Triggers and PerformDatas are parallel.
type Report struct {
	FastGasWei   *big.Int
	LinkNative   *big.Int
	TaskIDs      []uint64
	Triggers     [][]byte
	PerformDatas [][]byte
}

func (r *Report) Len() int {
	return len(r.TaskIDs)
}

// ConditionTriggerContext is the decoded trigger of condition and ready tasks.
type ConditionTriggerContext struct {
	BlockNum  uint32
	BlockHash common.Hash
}

// LogTriggerContext identifies the log that made a log task eligible.
type LogTriggerContext struct {
	LogBlockHash common.Hash
	TxHash       common.Hash
	LogIndex     uint32
	BlockNum     uint32
	BlockHash    common.Hash
}

// CronTriggerContext identifies the schedule tick a cron task is performed for.
type CronTriggerContext struct {
	Tick      uint64
	BlockNum  uint32
	BlockHash common.Hash
}

// LogTriggerConfig is the decoded trigger config of log tasks. FilterSelector is a bitmask
// choosing which of Topic1..Topic3 must match.
type LogTriggerConfig struct {
	ContractAddress common.Address
	FilterSelector  uint8
	Topic0          common.Hash
	Topic1          common.Hash
	Topic2          common.Hash
	Topic3          common.Hash
}
