package events

import (
	"context"
	"errors"
	"sync"

	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Emitter receives the events of each committed operation, in commit order.
type Emitter interface {
	Emit(ctx context.Context, events []types.Event) error
}

// Multi fans events out to every emitter. Every emitter is called even if an
// earlier one fails.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, events []types.Event) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, events []types.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Event(nil), r.events...)
}

// Names returns the names of the recorded events in order.
func (r *Recorder) Names() []types.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]types.EventName, len(r.events))
	for i, ev := range r.events {
		names[i] = ev.Name
	}
	return names
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// LogEmitter writes each event to the service log.
type LogEmitter struct {
	logger logging.Logger
}

func NewLogEmitter(logger logging.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(_ context.Context, events []types.Event) error {
	for _, ev := range events {
		l.logger.Debug("Registry event", "event", ev.Name, "task_id", ev.TaskID, "height", ev.Height)
	}
	return nil
}
