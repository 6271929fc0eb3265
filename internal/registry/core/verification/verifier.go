package verification

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/triggerx-registry/internal/registry/core/report"
	"github.com/trigg3rX/triggerx-registry/internal/registry/store"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/cryptography"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// SignatureVerifier recovers one signer identity per signature over digest.
type SignatureVerifier interface {
	Recover(digest [32]byte, sigs []types.Signature) ([]common.Address, error)
}

// ECDSAVerifier recovers secp256k1 signers.
type ECDSAVerifier struct{}

var _ SignatureVerifier = ECDSAVerifier{}

func (ECDSAVerifier) Recover(digest [32]byte, sigs []types.Signature) ([]common.Address, error) {
	signers := make([]common.Address, len(sigs))
	for i, sig := range sigs {
		addr, err := cryptography.RecoverDigestSigner(digest, sig.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: signature %d: %v", regerrors.ErrOnlyActiveSigners, i, err)
		}
		signers[i] = addr
	}
	return signers, nil
}

// Verifier authenticates transmitted reports against the active configuration.
type Verifier struct {
	scheme SignatureVerifier
}

func NewVerifier(scheme SignatureVerifier) *Verifier {
	if scheme == nil {
		scheme = ECDSAVerifier{}
	}
	return &Verifier{scheme: scheme}
}

// Verify checks that caller may transmit and that sigs are a quorum of distinct active
// signers over (ctx, raw), then decodes the report. It never mutates g.
func (v *Verifier) Verify(g *store.Globals, caller common.Address, ctx types.ReportContext, raw []byte, sigs []types.Signature) (*types.Report, error) {
	if g.Paused {
		return nil, regerrors.ErrRegistryPaused
	}
	if !g.IsActiveTransmitter(caller) {
		return nil, fmt.Errorf("%w: %s", regerrors.ErrOnlyActiveTransmitters, caller.Hex())
	}
	if ctx.ConfigDigest != g.Config.ConfigDigest {
		return nil, fmt.Errorf("%w: got %s, want %s", regerrors.ErrConfigDigestMismatch, ctx.ConfigDigest.Hex(), g.Config.ConfigDigest.Hex())
	}
	if want := int(g.Config.F) + 1; len(sigs) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", regerrors.ErrIncorrectNumberOfSignatures, len(sigs), want)
	}

	signers, err := v.scheme.Recover(report.Digest(ctx, raw), sigs)
	if err != nil {
		return nil, err
	}
	if len(signers) != len(sigs) {
		return nil, fmt.Errorf("%w: recovered %d of %d signers", regerrors.ErrOnlyActiveSigners, len(signers), len(sigs))
	}
	var seen uint32
	for _, addr := range signers {
		s, ok := g.ActiveSigner(addr)
		if !ok {
			return nil, fmt.Errorf("%w: %s", regerrors.ErrOnlyActiveSigners, addr.Hex())
		}
		bit := uint32(1) << s.Index
		if seen&bit != 0 {
			return nil, fmt.Errorf("%w: %s", regerrors.ErrDuplicateSigners, addr.Hex())
		}
		seen |= bit
	}

	return report.Decode(raw)
}
