package queue

import (
	"context"
	"fmt"

	"github.com/iudanet/guardian/internal/models"
)

// EventType identifies a queue event.
type EventType string

// Queue events.
const (
	EventEnqueued     EventType = "enqueued"
	EventDelivered    EventType = "delivered"
	EventRetrying     EventType = "retrying"
	EventDeadLettered EventType = "dead_lettered"
)

// Event reports a queue transition with the pending count after it.
type Event struct {
	Err       error
	Type      EventType
	Operation models.QueuedOperation
	Pending   int
}

// Drain attempts every queued operation once, in enqueue order.
// A drain started while another is running returns Skipped.
// Operations enqueued during the pass are kept for the next one.
func (q *Queue) Drain(ctx context.Context) (*DrainResult, error) {
	if !q.tryStartProcessing() {
		q.logger.Debug().Msg("drain already in progress")
		return &DrainResult{Skipped: true}, nil
	}
	defer q.finishProcessing()

	q.mu.Lock()
	snapshot, err := q.loadPending(ctx)
	q.mu.Unlock()
	if err != nil {
		return nil, err
	}

	result := &DrainResult{}
	if len(snapshot) == 0 {
		return result, nil
	}

	q.logger.Info().Int("pending", len(snapshot)).Msg("draining operation queue")

	for i := range snapshot {
		if i > 0 {
			if err := q.sleep(ctx, q.drainDelay); err != nil {
				result.Remaining, _ = q.PendingCount(context.WithoutCancel(ctx))
				return result, fmt.Errorf("drain interrupted: %w", err)
			}
		}

		op := snapshot[i]
		execErr := q.exec.Execute(ctx, &op)

		ev, err := q.settle(ctx, op, execErr)
		if err != nil {
			return result, err
		}

		switch ev.Type {
		case EventDelivered:
			result.Delivered++
		case EventRetrying:
			result.Retrying++
		case EventDeadLettered:
			result.DeadLettered++
		}
		q.bus.Publish(ev)
	}

	result.Remaining, err = q.PendingCount(ctx)
	if err != nil {
		return result, err
	}

	q.logger.Info().
		Int("delivered", result.Delivered).
		Int("retrying", result.Retrying).
		Int("dead_lettered", result.DeadLettered).
		Int("remaining", result.Remaining).
		Msg("queue drained")

	return result, nil
}

// settle persists the outcome of one attempt against the current queue,
// so operations enqueued while the attempt ran are preserved.
func (q *Queue) settle(ctx context.Context, op models.QueuedOperation, execErr error) (Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// settling must complete even if the drain context is cancelled mid-attempt
	ctx = context.WithoutCancel(ctx)

	pending, err := q.loadPending(ctx)
	if err != nil {
		return Event{}, err
	}

	idx := -1
	for i := range pending {
		if pending[i].ID == op.ID {
			idx = i
			break
		}
	}

	ev := Event{Operation: op, Err: execErr}

	switch {
	case execErr == nil:
		ev.Type = EventDelivered
		if idx >= 0 {
			pending = append(pending[:idx], pending[idx+1:]...)
		}
		q.logger.Debug().Str("op_id", op.ID).Msg("operation delivered")

	case idx < 0:
		// removed by Clear while in flight
		ev.Type = EventRetrying
		ev.Pending = len(pending)
		return ev, nil

	default:
		op.RetryCount = pending[idx].RetryCount + 1
		ev.Operation = op

		permanent := !q.isTransient(execErr)
		if permanent || op.RetryCount >= q.maxRetries {
			ev.Type = EventDeadLettered
			pending = append(pending[:idx], pending[idx+1:]...)

			dead, err := q.loadDeadLetters(ctx)
			if err != nil {
				return Event{}, err
			}
			dead = append(dead, models.DeadLetter{
				Operation: op,
				Error:     execErr.Error(),
				FailedAt:  q.now().UTC(),
			})
			// dead letter is written before the op leaves the active queue
			if err := q.saveDeadLetters(ctx, dead); err != nil {
				return Event{}, err
			}

			q.logger.Warn().
				Err(execErr).
				Str("op_id", op.ID).
				Str("entity", string(op.EntityType)).
				Int("retry_count", op.RetryCount).
				Bool("permanent", permanent).
				Msg("operation dead-lettered")
		} else {
			ev.Type = EventRetrying
			pending[idx] = op

			q.logger.Debug().
				Err(execErr).
				Str("op_id", op.ID).
				Int("retry_count", op.RetryCount).
				Msg("operation will be retried")
		}
	}

	if err := q.savePending(ctx, pending); err != nil {
		return Event{}, err
	}
	ev.Pending = len(pending)
	return ev, nil
}

func (q *Queue) tryStartProcessing() bool {
	q.procMu.Lock()
	defer q.procMu.Unlock()
	if q.processing {
		return false
	}
	q.processing = true
	return true
}

func (q *Queue) finishProcessing() {
	q.procMu.Lock()
	q.processing = false
	q.procMu.Unlock()
}

// Processing reports whether a drain is running.
func (q *Queue) Processing() bool {
	q.procMu.Lock()
	defer q.procMu.Unlock()
	return q.processing
}
