package report

import (
	"crypto/ecdsa"

	"github.com/trigg3rX/triggerx-registry/pkg/cryptography"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Sign produces one signature per key over the report digest.
func Sign(ctx types.ReportContext, raw []byte, keys []*ecdsa.PrivateKey) ([]types.Signature, error) {
	digest := Digest(ctx, raw)
	sigs := make([]types.Signature, 0, len(keys))
	for _, key := range keys {
		sig, err := cryptography.SignDigest(digest, key)
		if err != nil {
			return nil, err
		}
		parsed, err := types.SignatureFromBytes(sig[:])
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, parsed)
	}
	return sigs, nil
}
