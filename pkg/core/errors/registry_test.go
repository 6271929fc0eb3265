package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedSentinels_Classified(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"transmitter", ErrOnlyActiveTransmitters, KindAuthorization},
		{"wrapped digest", fmt.Errorf("%w: got 0x01", ErrConfigDigestMismatch), KindConsistency},
		{"paused", fmt.Errorf("transmit: %w", ErrRegistryPaused), KindLiveness},
		{"stale", ErrStaleTrigger, KindTemporal},
		{"funds", ErrInsufficientFunds, KindEconomic},
		{"trigger", fmt.Errorf("%w: bad cron", ErrInvalidTrigger), KindValidation},
		{"missing", ErrTaskNotFound, KindNotFound},
		{"token", fmt.Errorf("%w: revert", ErrTransferFailed), KindTransfer},
		{"substrate", ErrSubstrateAborted, KindSubstrate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestKindOf_MultipleSentinels_FirstKindInOrderWins(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrInvalidTrigger, ErrOnlyCallableByAdmin)
	assert.Equal(t, KindAuthorization, KindOf(err))
}

func TestKinds_EverySentinelHasOneKind(t *testing.T) {
	seen := map[error]Kind{}
	for kind, sentinels := range kinds {
		for _, s := range sentinels {
			prev, dup := seen[s]
			assert.False(t, dup, "%v listed under %s and %s", s, prev, kind)
			seen[s] = kind
		}
	}
	assert.Len(t, kindOrder, len(kinds))
}
