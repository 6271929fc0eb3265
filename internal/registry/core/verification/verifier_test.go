package verification

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/coretest"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/report"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

type fixture struct {
	committee *coretest.Committee
	globals   *store.Globals
	ctx       types.ReportContext
	raw       []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := coretest.NewCommittee(4, 1)
	st := store.New(coretest.Owner)
	c.Configure(st, coretest.DefaultOnchain())
	g := st.Globals()

	raw, err := report.Encode(&types.Report{
		FastGasWei:   big.NewInt(1_000_000_000),
		LinkNative:   big.NewInt(5_000_000_000_000_000),
		TaskIDs:      []uint64{1},
		Triggers:     [][]byte{{0x01}},
		PerformDatas: [][]byte{{}},
	})
	require.NoError(t, err)
	return &fixture{
		committee: c,
		globals:   g,
		ctx:       types.ReportContext{ConfigDigest: g.Config.ConfigDigest, Epoch: 1, Round: 1},
		raw:       raw,
	}
}

func TestVerify_QuorumOfActiveSigners_ReturnsReport(t *testing.T) {
	f := newFixture(t)
	v := NewVerifier(nil)

	r, err := v.Verify(f.globals, f.committee.Transmitters[0], f.ctx, f.raw, f.committee.Quorum(f.ctx, f.raw))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, r.TaskIDs)
}

func TestVerify_SignerOrderDoesNotMatter(t *testing.T) {
	f := newFixture(t)
	v := NewVerifier(ECDSAVerifier{})

	_, err := v.Verify(f.globals, f.committee.Transmitters[1], f.ctx, f.raw, f.committee.Sign(f.ctx, f.raw, 3, 1))
	assert.NoError(t, err)
}

func TestVerify_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture) (common.Address, types.ReportContext, []types.Signature)
		err   error
	}{
		{
			name: "paused registry wins over everything",
			setup: func(f *fixture) (common.Address, types.ReportContext, []types.Signature) {
				f.globals.Paused = true
				return common.HexToAddress("0xdead"), f.ctx, nil
			},
			err: regerrors.ErrRegistryPaused,
		},
		{
			name: "caller not a transmitter",
			setup: func(f *fixture) (common.Address, types.ReportContext, []types.Signature) {
				return common.HexToAddress("0xdead"), f.ctx, f.committee.Quorum(f.ctx, f.raw)
			},
			err: regerrors.ErrOnlyActiveTransmitters,
		},
		{
			name: "retired transmitter",
			setup: func(f *fixture) (common.Address, types.ReportContext, []types.Signature) {
				f.globals.Transmitters[f.committee.Transmitters[0]].Active = false
				return f.committee.Transmitters[0], f.ctx, f.committee.Quorum(f.ctx, f.raw)
			},
			err: regerrors.ErrOnlyActiveTransmitters,
		},
		{
			name: "stale digest",
			setup: func(f *fixture) (common.Address, types.ReportContext, []types.Signature) {
				ctx := f.ctx
				ctx.ConfigDigest = common.HexToHash("0x0001")
				return f.committee.Transmitters[0], ctx, f.committee.Quorum(ctx, f.raw)
			},
			err: regerrors.ErrConfigDigestMismatch,
		},
		{
			name: "too few signatures",
			setup: func(f *fixture) (common.Address, types.ReportContext, []types.Signature) {
				return f.committee.Transmitters[0], f.ctx, f.committee.Sign(f.ctx, f.raw, 0)
			},
			err: regerrors.ErrIncorrectNumberOfSignatures,
		},
		{
			name: "too many signatures",
			setup: func(f *fixture) (common.Address, types.ReportContext, []types.Signature) {
				return f.committee.Transmitters[0], f.ctx, f.committee.Sign(f.ctx, f.raw, 0, 1, 2)
			},
			err: regerrors.ErrIncorrectNumberOfSignatures,
		},
		{
			name: "signature over another context",
			setup: func(f *fixture) (common.Address, types.ReportContext, []types.Signature) {
				other := f.ctx
				other.Epoch = 9
				return f.committee.Transmitters[0], f.ctx, f.committee.Quorum(other, f.raw)
			},
			err: regerrors.ErrOnlyActiveSigners,
		},
		{
			name: "duplicate signer",
			setup: func(f *fixture) (common.Address, types.ReportContext, []types.Signature) {
				return f.committee.Transmitters[0], f.ctx, f.committee.Sign(f.ctx, f.raw, 2, 2)
			},
			err: regerrors.ErrDuplicateSigners,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.globals.Clone()
			caller, ctx, sigs := tt.setup(f)

			_, err := NewVerifier(nil).Verify(f.globals, caller, ctx, f.raw, sigs)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, before.Config.ConfigDigest, f.globals.Config.ConfigDigest)
		})
	}
}

func TestVerify_MalformedReportAfterValidSignatures(t *testing.T) {
	f := newFixture(t)
	raw := []byte{0x01, 0x02, 0x03}
	_, err := NewVerifier(nil).Verify(f.globals, f.committee.Transmitters[0], f.ctx, raw, f.committee.Quorum(f.ctx, raw))
	assert.ErrorIs(t, err, regerrors.ErrInvalidReport)
}

type stubScheme struct {
	signers []common.Address
}

func (s stubScheme) Recover([32]byte, []types.Signature) ([]common.Address, error) {
	return s.signers, nil
}

func TestVerify_PluggableScheme(t *testing.T) {
	f := newFixture(t)
	v := NewVerifier(stubScheme{signers: f.committee.Signers[:2]})

	_, err := v.Verify(f.globals, f.committee.Transmitters[0], f.ctx, f.raw, make([]types.Signature, 2))
	assert.NoError(t, err)
}
