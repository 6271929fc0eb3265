package metrics

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Collector serves the metrics endpoint and refreshes process gauges.
type Collector struct {
	handler http.Handler
	ledger  interfaces.Ledger
}

func NewCollector(ledger interfaces.Ledger) *Collector {
	return &Collector{
		handler: promhttp.Handler(),
		ledger:  ledger,
	}
}

// Handler returns the HTTP handler for metrics endpoint
func (c *Collector) Handler() http.Handler {
	return c.handler
}

// Start refreshes gauges every interval until ctx is done.
func (c *Collector) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Update()
			}
		}
	}()
}

func (c *Collector) Update() {
	UptimeSeconds.Set(time.Since(startTime).Seconds())
	if c.ledger != nil {
		CurrentHeight.Set(float64(c.ledger.Height()))
	}
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	MemoryUsageBytes.Set(float64(memStats.Alloc))
	GoroutinesActive.Set(float64(runtime.NumGoroutine()))
}

// Observer counts operations and their rejections.
type Observer struct{}

func (Observer) ObserveOperation(op string, err error) {
	if err == nil {
		OperationsTotal.WithLabelValues(op, "ok").Inc()
		return
	}
	OperationsTotal.WithLabelValues(op, "rejected").Inc()
	RejectionsTotal.WithLabelValues(op, string(regerrors.KindOf(err))).Inc()
}

var itemOutcomes = map[types.EventName]types.Outcome{
	types.EventTaskPerformed:     types.OutcomePerformed,
	types.EventInsufficientFunds: types.OutcomeInsufficientFunds,
	types.EventCancelledReport:   types.OutcomeCancelled,
	types.EventStaleReport:       types.OutcomeStale,
	types.EventReorgedReport:     types.OutcomeReorged,
	types.EventPausedReport:      types.OutcomePaused,
}

// Emitter updates counters and gauges from committed events.
type Emitter struct{}

func (Emitter) Emit(_ context.Context, events []types.Event) error {
	for _, ev := range events {
		if outcome, ok := itemOutcomes[ev.Name]; ok {
			ItemOutcomesTotal.WithLabelValues(outcome.String()).Inc()
			continue
		}
		switch ev.Name {
		case types.EventTransmitted:
			ReportsTransmittedTotal.Inc()
		case types.EventConfigSet:
			if data, ok := ev.Data.(types.ConfigSetData); ok {
				ConfigCount.Set(float64(data.ConfigCount))
				ActiveTransmitters.Set(float64(len(data.Transmitters)))
			}
		default:
			TaskEventsTotal.WithLabelValues(string(ev.Name)).Inc()
		}
	}
	return nil
}
