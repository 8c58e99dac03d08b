package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"go.uber.org/zap"
)

// timerTaskTimeout bounds a timer-driven transition that has no caller context.
const timerTaskTimeout = 30 * time.Second

type task struct {
	ctx context.Context
	run func(ctx context.Context)
}

// room is the single worker serializing every command for one room id.
type room struct {
	id    string
	inbox chan task
}

// submitCtx queues run on the room's worker, starting the worker if needed.
// A full inbox is reported as ROOM_BUSY rather than blocking the caller.
func (e *Engine) submitCtx(ctx context.Context, roomID string, run func(ctx context.Context)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errEngineClosed
	}

	r, ok := e.rooms[roomID]
	if !ok {
		r = &room{id: roomID, inbox: make(chan task, e.opts.InboxSize)}
		e.rooms[roomID] = r
		e.wg.Add(1)
		go e.run(r)
	}

	select {
	case r.inbox <- task{ctx: ctx, run: run}:
		return nil
	default:
		return apperr.New(apperr.CodeRoomBusy, "too many pending commands for room")
	}
}

// submit queues a task that is not tied to a caller, such as a timer.
func (e *Engine) submit(roomID string, run func(ctx context.Context)) error {
	return e.submitCtx(context.Background(), roomID, func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, timerTaskTimeout)
		defer cancel()
		run(ctx)
	})
}

// do queues run and waits until it has finished.
func (e *Engine) do(ctx context.Context, roomID string, run func(ctx context.Context)) error {
	done := make(chan struct{})
	var panicked any
	err := e.submitCtx(ctx, roomID, func(ctx context.Context) {
		defer close(done)
		defer func() { panicked = recover() }()
		run(ctx)
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		if panicked != nil {
			return apperr.New(apperr.CodeInternal, fmt.Sprintf("command panicked: %v", panicked))
		}
		return nil
	case <-ctx.Done():
		return apperr.Wrap(apperr.CodeInternal, "command abandoned", ctx.Err())
	case <-e.quit:
		return errEngineClosed
	}
}

// run consumes the room inbox until the engine closes or the room has been
// idle long enough to release its goroutine.
func (e *Engine) run(r *room) {
	defer e.wg.Done()

	idle := time.NewTimer(e.opts.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case t := <-r.inbox:
			e.runTask(r, t)
			idle.Reset(e.opts.IdleTimeout)
		case <-idle.C:
			e.mu.Lock()
			if len(r.inbox) == 0 {
				delete(e.rooms, r.id)
				e.mu.Unlock()
				return
			}
			e.mu.Unlock()
			idle.Reset(e.opts.IdleTimeout)
		case <-e.quit:
			return
		}
	}
}

func (e *Engine) runTask(r *room, t task) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("room task panicked", zap.String("room_id", r.id), zap.Any("panic", p))
		}
	}()
	if t.ctx.Err() != nil {
		// The caller already gave up.
		return
	}
	t.run(t.ctx)
}

// activeRooms reports how many room workers are running.
func (e *Engine) activeRooms() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rooms)
}
