package taskqueue

import (
	"errors"
	"fmt"
)

// ErrExecutorClosed is returned by Submit after Stop has been called.
var ErrExecutorClosed = errors.New("taskqueue: executor closed")

// QueueFullError reports a shard whose queue stayed full past the enqueue
// timeout. Callers treat it as back-pressure.
type QueueFullError struct {
	Shard    int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("taskqueue: shard %d full (%d/%d)", e.Shard, e.Length, e.Capacity)
}
