package tasks

import (
	"fmt"

	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Reader is the read side shared by the store and its transactions.
type Reader interface {
	TaskIDs() []uint64
	Task(id uint64) (*types.Task, bool)
}

// ActiveTaskIDs pages through the ids of tasks with no cancellation scheduled, in
// ascending order, optionally restricted to one trigger type. A maxCount of zero
// returns everything from start on.
func ActiveTaskIDs(r Reader, start, maxCount int, triggerType *types.TriggerType) ([]uint64, error) {
	active := make([]uint64, 0)
	for _, id := range r.TaskIDs() {
		task, ok := r.Task(id)
		if !ok || task.Cancelled() {
			continue
		}
		if triggerType != nil && task.TriggerType != *triggerType {
			continue
		}
		active = append(active, id)
	}
	if start < 0 || start > len(active) {
		return nil, fmt.Errorf("%w: start %d, %d active tasks", regerrors.ErrIndexOutOfRange, start, len(active))
	}
	end := len(active)
	if maxCount > 0 && start+maxCount < end {
		end = start + maxCount
	}
	return active[start:end], nil
}
