package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/retry"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

type failingEmitter struct{ err error }

func (f failingEmitter) Emit(context.Context, []types.Event) error { return f.err }

type fakeStream struct {
	fails int
	calls []*redis.XAddArgs
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.calls = append(f.calls, a)
	cmd := redis.NewStringCmd(ctx)
	if f.fails > 0 {
		f.fails--
		cmd.SetErr(errors.New("connection reset"))
		return cmd
	}
	cmd.SetVal("1-0")
	return cmd
}

func sample() []types.Event {
	return []types.Event{
		{Name: types.EventTaskPerformed, TaskID: 1, Height: 10},
		{Name: types.EventTransmitted, Height: 10},
	}
}

func fastRetry() *retry.RetryConfig {
	return &retry.RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1,
		ShouldRetry:   retry.IsRetryable,
	}
}

func TestMulti_Emit_ReachesAllAndJoinsErrors(t *testing.T) {
	first, second := NewRecorder(), NewRecorder()
	boom := errors.New("boom")
	m := Multi{first, failingEmitter{boom}, nil, second}

	err := m.Emit(context.Background(), sample())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, first.Events(), 2)
	assert.Equal(t, []types.EventName{types.EventTaskPerformed, types.EventTransmitted}, second.Names())
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Emit(context.Background(), sample()))
	r.Reset()
	assert.Empty(t, r.Events())
}

func TestRedisStreamEmitter_Emit_OneEntryPerEvent(t *testing.T) {
	stream := &fakeStream{}
	e := NewRedisStreamEmitter(stream, "registry:events", 1000, logging.NewNoOpLogger()).WithRetryConfig(fastRetry())

	require.NoError(t, e.Emit(context.Background(), sample()))
	require.Len(t, stream.calls, 2)
	assert.Equal(t, "registry:events", stream.calls[0].Stream)
	assert.Equal(t, int64(1000), stream.calls[0].MaxLen)
	assert.True(t, stream.calls[0].Approx)
	values := stream.calls[0].Values.(map[string]interface{})
	assert.Equal(t, "TaskPerformed", values["name"])
	assert.Equal(t, uint64(1), values["task_id"])
}

func TestRedisStreamEmitter_Emit_RetriesTransientFailures(t *testing.T) {
	stream := &fakeStream{fails: 2}
	e := NewRedisStreamEmitter(stream, "s", 0, logging.NewNoOpLogger()).WithRetryConfig(fastRetry())

	require.NoError(t, e.Emit(context.Background(), sample()[:1]))
	assert.Len(t, stream.calls, 3)
	assert.False(t, stream.calls[0].Approx)
}

func TestRedisStreamEmitter_Emit_GivesUp(t *testing.T) {
	stream := &fakeStream{fails: 10}
	e := NewRedisStreamEmitter(stream, "s", 0, logging.NewNoOpLogger()).WithRetryConfig(fastRetry())

	err := e.Emit(context.Background(), sample())
	assert.Error(t, err)
	assert.Len(t, stream.calls, 3, "first event exhausts its attempts and the rest are not sent")
}

func TestLogEmitter_Emit_LogsEveryEvent(t *testing.T) {
	logger := &logging.MockLogger{}
	logger.SetupDefaultExpectations()

	require.NoError(t, NewLogEmitter(logger).Emit(context.Background(), sample()))

	logger.AssertNumberOfCalls(t, "Debug", 2)
	logger.AssertCalled(t, "Debug", "Registry event", []interface{}{"event", types.EventTaskPerformed, "task_id", uint64(1), "height", uint64(10)})
}
