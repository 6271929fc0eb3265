package validation

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/triggerx-registry/internal/registry/chain"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

type dedupSet map[common.Hash]bool

func (d dedupSet) HasDedupKey(key common.Hash) bool { return d[key] }

func newLedger(t *testing.T, height int) *chain.Simulated {
	t.Helper()
	l := chain.NewSimulated(big.NewInt(31337))
	l.Mine(height)
	return l
}

func hashAt(t *testing.T, l *chain.Simulated, h uint64) common.Hash {
	t.Helper()
	hash, ok := l.BlockHash(h)
	require.True(t, ok)
	return hash
}

func conditionTrigger(t *testing.T, num uint32, hash common.Hash) []byte {
	t.Helper()
	raw, err := EncodeConditionTrigger(types.ConditionTriggerContext{BlockNum: num, BlockHash: hash})
	require.NoError(t, err)
	return raw
}

func newTask(tt types.TriggerType) *types.Task {
	return &types.Task{ID: 7, TriggerType: tt, MaxValidHeight: types.NoExpiry, Balance: new(big.Int), AmountSpent: new(big.Int)}
}

func TestValidateConfig(t *testing.T) {
	logCfg, err := EncodeLogTriggerConfig(types.LogTriggerConfig{ContractAddress: common.HexToAddress("0xabc"), FilterSelector: 7})
	require.NoError(t, err)
	zeroAddr, err := EncodeLogTriggerConfig(types.LogTriggerConfig{FilterSelector: 1})
	require.NoError(t, err)
	badSelector, err := EncodeLogTriggerConfig(types.LogTriggerConfig{ContractAddress: common.HexToAddress("0xabc"), FilterSelector: 8})
	require.NoError(t, err)

	tests := []struct {
		name    string
		trigger types.TriggerType
		cfg     []byte
		err     error
	}{
		{"condition empty", types.ConditionTrigger, nil, nil},
		{"ready empty", types.ReadyTrigger, []byte{}, nil},
		{"condition with config", types.ConditionTrigger, []byte{0x01}, regerrors.ErrInvalidTrigger},
		{"log valid", types.LogTrigger, logCfg, nil},
		{"log zero address", types.LogTrigger, zeroAddr, regerrors.ErrInvalidTrigger},
		{"log selector out of range", types.LogTrigger, badSelector, regerrors.ErrInvalidTrigger},
		{"log garbage", types.LogTrigger, []byte{0x01}, regerrors.ErrInvalidTrigger},
		{"cron valid", types.CronTrigger, []byte("*/5 * * * *"), nil},
		{"cron descriptor", types.CronTrigger, []byte("@daily"), nil},
		{"cron invalid", types.CronTrigger, []byte("every tuesday"), regerrors.ErrInvalidTrigger},
		{"unknown type", types.TriggerType(9), nil, regerrors.ErrInvalidTriggerType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.trigger, tt.cfg)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClassify_ConditionTrigger(t *testing.T) {
	l := newLedger(t, 300)
	tip := l.Height()

	tests := []struct {
		name          string
		lastPerformed uint64
		num           uint64
		hash          func() common.Hash
		want          Verdict
	}{
		{"current height", 0, tip, func() common.Hash { return hashAt(t, l, tip) }, VerdictValid},
		{"recent height", 0, tip - 10, func() common.Hash { return hashAt(t, l, tip-10) }, VerdictValid},
		{"at lookback edge", 0, tip - 256, func() common.Hash { return hashAt(t, l, tip-256) }, VerdictValid},
		{"not after last performed", tip - 5, tip - 5, func() common.Hash { return hashAt(t, l, tip-5) }, VerdictStale},
		{"before last performed", tip - 5, tip - 6, func() common.Hash { return hashAt(t, l, tip-6) }, VerdictStale},
		{"wrong hash", 0, tip - 1, func() common.Hash { return common.HexToHash("0x1234") }, VerdictReorged},
		{"empty hash", 0, tip - 1, func() common.Hash { return common.Hash{} }, VerdictReorged},
		{"future height", 0, tip + 1, func() common.Hash { return common.Hash{} }, VerdictReorged},
		{"beyond lookback", 0, tip - 257, func() common.Hash { return common.HexToHash("0x01") }, VerdictReorged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTask(types.ConditionTrigger)
			task.LastPerformedHeight = tt.lastPerformed
			claim, err := Classify(task, conditionTrigger(t, uint32(tt.num), tt.hash()), l, dedupSet{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, claim.Verdict)
			assert.Nil(t, claim.DedupKey)
		})
	}
}

func TestClassify_ReorgAfterClaim(t *testing.T) {
	l := newLedger(t, 20)
	claimed := hashAt(t, l, 19)
	trigger := conditionTrigger(t, 19, claimed)

	claim, err := Classify(newTask(types.ReadyTrigger), trigger, l, dedupSet{})
	require.NoError(t, err)
	assert.Equal(t, VerdictValid, claim.Verdict)

	require.NoError(t, l.Reorg(3))
	claim, err = Classify(newTask(types.ReadyTrigger), trigger, l, dedupSet{})
	require.NoError(t, err)
	assert.Equal(t, VerdictReorged, claim.Verdict)
}

func TestClassify_AdministrativeStateFirst(t *testing.T) {
	l := newLedger(t, 10)
	garbage := []byte{0xff}

	claim, err := Classify(nil, garbage, l, dedupSet{})
	require.NoError(t, err)
	assert.Equal(t, VerdictUnperformable, claim.Verdict)

	dead := newTask(types.ConditionTrigger)
	dead.MaxValidHeight = 10
	claim, err = Classify(dead, garbage, l, dedupSet{})
	require.NoError(t, err)
	assert.Equal(t, VerdictUnperformable, claim.Verdict)

	pending := newTask(types.ConditionTrigger)
	pending.MaxValidHeight = 11
	_, err = Classify(pending, garbage, l, dedupSet{})
	assert.ErrorIs(t, err, regerrors.ErrInvalidTrigger)

	paused := newTask(types.ConditionTrigger)
	paused.Paused = true
	claim, err = Classify(paused, garbage, l, dedupSet{})
	require.NoError(t, err)
	assert.Equal(t, VerdictPaused, claim.Verdict)
}

func TestClassify_LogTrigger(t *testing.T) {
	l := newLedger(t, 50)
	base := types.LogTriggerContext{
		LogBlockHash: common.HexToHash("0xaa"),
		TxHash:       common.HexToHash("0xbb"),
		LogIndex:     3,
		BlockNum:     49,
		BlockHash:    hashAt(t, l, 49),
	}
	task := newTask(types.LogTrigger)
	key := DedupKey(task.ID, base)

	unanchored := base
	unanchored.BlockNum = 0
	unanchored.BlockHash = common.Hash{}

	reorged := base
	reorged.BlockHash = common.HexToHash("0x01")

	tests := []struct {
		name  string
		ctx   types.LogTriggerContext
		dedup dedupSet
		want  Verdict
	}{
		{"fresh log", base, dedupSet{}, VerdictValid},
		{"already performed", base, dedupSet{key: true}, VerdictStale},
		{"unanchored skips reorg check", unanchored, dedupSet{}, VerdictValid},
		{"reorged block", reorged, dedupSet{}, VerdictReorged},
		{"reorg wins over dedup", reorged, dedupSet{key: true}, VerdictReorged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeLogTrigger(tt.ctx)
			require.NoError(t, err)
			claim, err := Classify(task, raw, l, tt.dedup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, claim.Verdict)
			require.NotNil(t, claim.DedupKey)
			assert.Equal(t, key, *claim.DedupKey)
		})
	}
}

func TestDedupKey_DistinguishesLogs(t *testing.T) {
	a := types.LogTriggerContext{LogBlockHash: common.HexToHash("0x01"), TxHash: common.HexToHash("0x02"), LogIndex: 1}
	b := a
	b.LogIndex = 2
	assert.NotEqual(t, DedupKey(1, a), DedupKey(1, b))
	assert.NotEqual(t, DedupKey(1, a), DedupKey(2, a))
	a.BlockNum = 99
	assert.Equal(t, DedupKey(1, a), DedupKey(1, types.LogTriggerContext{LogBlockHash: a.LogBlockHash, TxHash: a.TxHash, LogIndex: 1}))
}

func TestClassify_CronTrigger(t *testing.T) {
	l := newLedger(t, 5)
	task := newTask(types.CronTrigger)
	task.LastCronTick = 1_700_000_000

	tests := []struct {
		name string
		ctx  types.CronTriggerContext
		want Verdict
	}{
		{"next tick", types.CronTriggerContext{Tick: 1_700_000_300}, VerdictValid},
		{"same tick", types.CronTriggerContext{Tick: 1_700_000_000}, VerdictStale},
		{"anchored to canonical block", types.CronTriggerContext{Tick: 1_700_000_300, BlockNum: 4, BlockHash: hashAt(t, l, 4)}, VerdictValid},
		{"anchored to wrong block", types.CronTriggerContext{Tick: 1_700_000_300, BlockNum: 4}, VerdictReorged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeCronTrigger(tt.ctx)
			require.NoError(t, err)
			claim, err := Classify(task, raw, l, dedupSet{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, claim.Verdict)
			assert.Equal(t, tt.ctx.Tick, claim.CronTick)
		})
	}
}

func TestDecodeTriggers_RoundTrip(t *testing.T) {
	cfg := types.LogTriggerConfig{
		ContractAddress: common.HexToAddress("0x1234"),
		FilterSelector:  5,
		Topic0:          common.HexToHash("0x10"),
		Topic3:          common.HexToHash("0x13"),
	}
	raw, err := EncodeLogTriggerConfig(cfg)
	require.NoError(t, err)
	decoded, err := DecodeLogTriggerConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)

	_, err = DecodeCronTrigger([]byte{0x01})
	assert.ErrorIs(t, err, regerrors.ErrInvalidTrigger)
}
