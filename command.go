package stratum

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/stratum/types"
)

// opCode identifies a queued operation for logging and metrics.
type opCode string

const (
	opSelectKeyspace opCode = "select_keyspace"
	opGet            opCode = "get"
	opCount          opCode = "count"
	opSet            opCode = "set"
	opRemove         opCode = "remove"
	opTruncate       opCode = "truncate"
	opEnumerate      opCode = "enumerate"
)

// command is one deferred invocation: an operation tag plus a prepared
// execution step. The step closes over the original, already-validated
// arguments, so draining re-invokes the call exactly as it was submitted.
type command struct {
	op   opCode
	ctx  context.Context
	run  func(ctx context.Context) error
	done chan error
}

// gate tracks one owner's readiness. It starts closed; open releases
// waiters, fail releases them with a permanent error, and reset closes it
// again for the next schema generation.
type gate struct {
	mu    sync.Mutex
	ch    chan struct{}
	ready bool
	err   error
}

func newGate() *gate {
	return &gate{ch: make(chan struct{})}
}

// open marks the gate ready and releases all waiters.
func (g *gate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return
	}
	if !g.ready {
		g.ready = true
		close(g.ch)
	}
}

// fail marks the gate permanently failed. Waiters and all future waits
// observe err. A failed gate cannot be reopened.
func (g *gate) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return
	}
	g.err = err
	if !g.ready {
		close(g.ch)
	}
	g.ready = false
}

// reset closes the gate for a new schema generation. Commands submitted
// afterwards wait for the next open. A failed gate stays failed.
func (g *gate) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return
	}
	if g.ready {
		g.ready = false
		g.ch = make(chan struct{})
	}
}

// wait blocks until the gate is ready, failed, or ctx is done.
func (g *gate) wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		ch := g.ch
		g.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}

		g.mu.Lock()
		ready, err := g.ready, g.err
		g.mu.Unlock()

		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		// The gate was reset between the close and our wake-up; wait for
		// the next generation.
	}
}

// dispatcher is the FIFO command queue shared by the Session and every
// Table handle. Commands are buffered in submission order and executed by a
// single worker goroutine that waits on the owner's readiness gate between
// commands, so a drain pass preserves FIFO order and no two commands of one
// owner ever run in parallel.
type dispatcher struct {
	owner   string
	gate    *gate
	queue   chan *command
	stop    chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup

	logger  types.Logger
	metrics types.MetricsCollector
}

func newDispatcher(owner string, capacity int, g *gate, logger types.Logger, metrics types.MetricsCollector) *dispatcher {
	d := &dispatcher{
		owner:   owner,
		gate:    g,
		queue:   make(chan *command, capacity),
		stop:    make(chan struct{}),
		logger:  logger,
		metrics: metrics,
	}

	d.wg.Add(1)
	go d.drain()

	return d
}

// drain executes commands head-to-tail. Each command first waits for the
// owner's gate, so calls issued before readiness are deferred and replayed
// in submission order once the owner becomes ready.
func (d *dispatcher) drain() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stop:
			d.abandon()
			return
		case cmd := <-d.queue:
			if err := d.gate.wait(cmd.ctx); err != nil {
				d.logger.Debug("dropping queued command",
					"owner", d.owner,
					"op", string(cmd.op),
					"error", err.Error(),
				)
				cmd.done <- err

				continue
			}

			cmd.done <- cmd.run(cmd.ctx)
			d.metrics.IncCommandDrained(d.owner)
		}
	}
}

// abandon completes every still-queued command with ErrSessionClosed.
// Close performs no flush; queued work is never executed.
func (d *dispatcher) abandon() {
	for {
		select {
		case cmd := <-d.queue:
			cmd.done <- types.ErrSessionClosed
		default:
			return
		}
	}
}

// call submits a command and blocks until it completes or ctx is done.
//
// Submission is not cancellable: once a command is accepted it runs to
// completion or failure even if the caller stops waiting; ctx abandonment
// only releases the caller.
func (d *dispatcher) call(ctx context.Context, op opCode, run func(ctx context.Context) error) error {
	if d.stopped.Load() {
		return types.ErrSessionClosed
	}

	return d.submit(ctx, &command{
		op:   op,
		ctx:  ctx,
		run:  run,
		done: make(chan error, 1),
	})
}

// submit enqueues cmd and blocks for its result. A close can complete its
// final drain between the caller's stopped check and the enqueue below,
// leaving the command in a queue no worker will ever read; submit re-checks
// stopped after the enqueue and drains again, so a submission racing with
// close still completes with ErrSessionClosed instead of stranding the
// caller.
func (d *dispatcher) submit(ctx context.Context, cmd *command) error {
	select {
	case d.queue <- cmd:
		d.metrics.IncCommandQueued(d.owner)
	default:
		return types.ErrQueueFull
	}

	if d.stopped.Load() {
		d.abandon()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops the worker and abandons queued commands. Safe to call more
// than once.
func (d *dispatcher) close() {
	if d.stopped.CompareAndSwap(false, true) {
		close(d.stop)
		d.wg.Wait()
		// Commands that raced with the stop signal are still abandoned.
		d.abandon()
	}
}
