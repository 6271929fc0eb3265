package metrics

import (
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/triggerx-registry/internal/registry/chain"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

func TestEmitter_Emit_CountsOutcomesAndConfig(t *testing.T) {
	performed := testutil.ToFloat64(ItemOutcomesTotal.WithLabelValues("performed"))
	stale := testutil.ToFloat64(ItemOutcomesTotal.WithLabelValues("stale"))
	reports := testutil.ToFloat64(ReportsTransmittedTotal)
	funded := testutil.ToFloat64(TaskEventsTotal.WithLabelValues(string(types.EventFundsAdded)))

	err := Emitter{}.Emit(context.Background(), []types.Event{
		{Name: types.EventTaskPerformed, TaskID: 1},
		{Name: types.EventStaleReport, TaskID: 2},
		{Name: types.EventTransmitted},
		{Name: types.EventFundsAdded, TaskID: 1},
		{Name: types.EventConfigSet, Data: types.ConfigSetData{ConfigCount: 3, Transmitters: make([]common.Address, 4)}},
	})
	require.NoError(t, err)

	assert.Equal(t, performed+1, testutil.ToFloat64(ItemOutcomesTotal.WithLabelValues("performed")))
	assert.Equal(t, stale+1, testutil.ToFloat64(ItemOutcomesTotal.WithLabelValues("stale")))
	assert.Equal(t, reports+1, testutil.ToFloat64(ReportsTransmittedTotal))
	assert.Equal(t, funded+1, testutil.ToFloat64(TaskEventsTotal.WithLabelValues(string(types.EventFundsAdded))))
	assert.Equal(t, float64(3), testutil.ToFloat64(ConfigCount))
	assert.Equal(t, float64(4), testutil.ToFloat64(ActiveTransmitters))
}

func TestObserver_ObserveOperation_LabelsByKind(t *testing.T) {
	ok := testutil.ToFloat64(OperationsTotal.WithLabelValues("transmit", "ok"))
	denied := testutil.ToFloat64(RejectionsTotal.WithLabelValues("transmit", "authorization"))
	unknown := testutil.ToFloat64(RejectionsTotal.WithLabelValues("transmit", "unknown"))

	Observer{}.ObserveOperation("transmit", nil)
	Observer{}.ObserveOperation("transmit", regerrors.ErrOnlyActiveTransmitters)
	Observer{}.ObserveOperation("transmit", errors.New("other"))

	assert.Equal(t, ok+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("transmit", "ok")))
	assert.Equal(t, denied+1, testutil.ToFloat64(RejectionsTotal.WithLabelValues("transmit", "authorization")))
	assert.Equal(t, unknown+1, testutil.ToFloat64(RejectionsTotal.WithLabelValues("transmit", "unknown")))
}

func TestCollector_UpdateAndServe(t *testing.T) {
	ledger := chain.NewSimulated(big.NewInt(1))
	ledger.Mine(7)
	c := NewCollector(ledger)
	c.Update()
	assert.Equal(t, float64(7), testutil.ToFloat64(CurrentHeight))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "triggerx_registry_current_height"))
}
