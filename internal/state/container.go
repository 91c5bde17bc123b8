package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Middleware observes every dispatched action together with the state it
// produced. It returns nil when the action is not its concern, otherwise a
// channel of follow-up actions that it closes when its work is done. ctx is
// cancelled when the container closes, or when a newer keyed action
// supersedes the one being handled.
type Middleware func(ctx context.Context, s State, a Action) <-chan Action

// queueSize bounds how many dispatches may wait for the loop.
const queueSize = 64

type envelope struct {
	action Action
	// origin is the effect context that produced the action; nil for
	// top-level dispatches.
	origin context.Context
}

// Container owns the state tree. Every reduction runs on one goroutine in
// dispatch order; readers get consistent snapshots.
type Container struct {
	reduce      Reducer
	middlewares []Middleware
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan envelope
	done   chan struct{}

	mu    sync.RWMutex
	state State

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int

	// effects is owned by the loop goroutine.
	effects map[string]context.CancelFunc

	pendMu  sync.Mutex
	pending int
	idle    chan struct{}
}

// NewContainer starts the dispatch loop. A nil logger means slog.Default().
func NewContainer(initial State, reduce Reducer, logger *slog.Logger, middlewares ...Middleware) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Container{
		reduce:      reduce,
		middlewares: middlewares,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		queue:       make(chan envelope, queueSize),
		done:        make(chan struct{}),
		state:       initial,
		subs:        make(map[int]chan State),
		effects:     make(map[string]context.CancelFunc),
		idle:        make(chan struct{}),
	}
	go c.run()
	return c
}

// Dispatch queues a for reduction. It may block while the queue is full and
// is a no-op after Close.
func (c *Container) Dispatch(a Action) {
	c.enqueue(envelope{action: a})
}

// State returns the current state.
func (c *Container) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe returns a channel that receives the state after each reduction,
// and a cancel func that closes it. Slow readers only see the latest state.
func (c *Container) Subscribe() (<-chan State, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan State, 1)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Wait blocks until every queued action has been reduced and every effect
// has finished, or until ctx is done.
func (c *Container) Wait(ctx context.Context) error {
	for {
		c.pendMu.Lock()
		if c.pending == 0 {
			c.pendMu.Unlock()
			return nil
		}
		idle := c.idle
		c.pendMu.Unlock()

		select {
		case <-idle:
		case <-c.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels running effects, stops the loop and closes subscriber
// channels. Actions still queued are discarded.
func (c *Container) Close() {
	c.cancel()
	<-c.done

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Container) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case e := <-c.queue:
			c.apply(e)
			c.track(-1)
		}
	}
}

func (c *Container) apply(e envelope) {
	if e.origin != nil && e.origin.Err() != nil {
		c.logger.Debug("dropping superseded action", "action", actionName(e.action))
		return
	}

	c.mu.Lock()
	next := c.reduce(c.state, e.action)
	c.state = next
	c.mu.Unlock()
	c.notify(next)

	ctx := c.ctx
	if k, ok := e.action.(Keyed); ok {
		key := k.EffectKey()
		if prev, ok := c.effects[key]; ok {
			prev()
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(c.ctx)
		c.effects[key] = cancel
	}

	for _, mw := range c.middlewares {
		out := mw(ctx, next, e.action)
		if out == nil {
			continue
		}
		c.track(1)
		go c.forward(ctx, out)
	}
}

// forward feeds an effect's follow-ups back into the queue. It drains out
// even after ctx is cancelled so the effect goroutine can always finish.
func (c *Container) forward(ctx context.Context, out <-chan Action) {
	defer c.track(-1)
	for a := range out {
		c.enqueue(envelope{action: a, origin: ctx})
	}
}

func (c *Container) enqueue(e envelope) {
	if c.ctx.Err() != nil {
		return
	}
	c.track(1)
	select {
	case c.queue <- e:
	case <-c.ctx.Done():
		c.track(-1)
	}
}

func (c *Container) notify(s State) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (c *Container) track(delta int) {
	c.pendMu.Lock()
	defer c.pendMu.Unlock()
	c.pending += delta
	if c.pending == 0 {
		close(c.idle)
		c.idle = make(chan struct{})
	}
}

func actionName(a Action) string {
	return fmt.Sprintf("%T", a)
}
