// Package live re-runs read queries whenever the records they read change.
//
// A Hub watches a store for committed writes and turns each change batch into
// a task on a FIFO queue. A single scheduler goroutine drains the queue and
// recomputes every subscription whose last run read an affected record.
package live

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/storage"
)

// ErrClosed is returned by Sync once the hub has shut down.
var ErrClosed = errors.New("live: hub closed")

// Source is the part of a store a Hub needs. Each recompute reads through
// View so a query never observes a write half-applied.
type Source interface {
	storage.Viewer
	Watch(listener func([]storage.Change)) (cancel func())
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the logger used for recomputation failures.
func WithLogger(l *log.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

type Hub struct {
	source Source
	log    *log.Logger
	queue  *taskQueue

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64

	stopWatch func()
	closeOnce sync.Once
}

// NewHub attaches to source and starts the scheduler goroutine.
func NewHub(source Source, opts ...HubOption) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		source: source,
		log:    logger.Get(),
		queue:  newTaskQueue(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.stopWatch = source.Watch(h.onChange)
	go h.run()
	return h
}

// onChange runs on the writer's goroutine; it only enqueues.
func (h *Hub) onChange(changes []storage.Change) {
	h.queue.Enqueue(func() { h.dispatch(changes) })
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		if t, ok := h.queue.TryDequeue(); ok {
			h.exec(t)
			continue
		}
		select {
		case <-h.ctx.Done():
			return
		case _, ok := <-h.queue.Wait():
			if !ok {
				return
			}
		}
	}
}

func (h *Hub) exec(t task) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Live task panicked", "panic", r)
		}
	}()
	if h.ctx.Err() != nil {
		return
	}
	t()
}

// dispatch recomputes each affected subscription once, in subscription order.
func (h *Hub) dispatch(changes []storage.Change) {
	for _, sub := range h.snapshot() {
		if sub.closed.Load() {
			continue
		}
		if sub.deps.affectedBy(changes) {
			sub.recompute(h.ctx)
		}
	}
}

func (h *Hub) snapshot() []*Subscription {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	return subs
}

func (h *Hub) add(sub *Subscription) {
	h.mu.Lock()
	sub.id = h.nextID
	h.nextID++
	h.subs[sub.id] = sub
	h.mu.Unlock()
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub.id)
	h.mu.Unlock()
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Sync blocks until every task queued before the call has been delivered.
func (h *Hub) Sync(ctx context.Context) error {
	reached := make(chan struct{})
	if !h.queue.Enqueue(func() { close(reached) }) {
		return ErrClosed
	}

	select {
	case <-reached:
		return nil
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close detaches from the store and stops the scheduler. Pending tasks are
// dropped.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		if h.stopWatch != nil {
			h.stopWatch()
		}
		h.cancel()
		h.queue.Close()
		<-h.done

		h.mu.Lock()
		for _, s := range h.subs {
			s.closed.Store(true)
		}
		h.subs = make(map[uint64]*Subscription)
		h.mu.Unlock()
	})
}

// Option configures a subscription.
type Option func(*subOptions)

type subOptions struct {
	name    string
	onError func(error)
}

// OnError receives recomputation failures. The subscription keeps running and
// the last good value is re-delivered.
func OnError(fn func(error)) Option {
	return func(o *subOptions) { o.onError = fn }
}

// WithName labels the subscription in log output.
func WithName(name string) Option {
	return func(o *subOptions) { o.name = name }
}

// Subscription is a live query registered with a Hub.
type Subscription struct {
	hub    *Hub
	id     uint64
	name   string
	closed atomic.Bool

	// deps and recompute are only touched on the scheduler goroutine.
	deps      *deps
	recompute func(ctx context.Context)
}

// Close stops future recomputation. A run already in progress may still
// deliver once.
func (s *Subscription) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.hub.remove(s)
}

// Subscribe registers query with the hub. The first result is computed
// asynchronously on the scheduler goroutine; afterwards query re-runs each
// time a record it read changes. onNext is always called on the scheduler
// goroutine.
func Subscribe[T any](h *Hub, query func(ctx context.Context, r storage.Reader) (T, error), onNext func(T), opts ...Option) *Subscription {
	var o subOptions
	for _, opt := range opts {
		opt(&o)
	}

	sub := &Subscription{hub: h, name: o.name}

	var last T
	var hasLast bool

	sub.recompute = func(ctx context.Context) {
		var v T
		tr := newTrackingReader(nil)
		err := h.source.View(ctx, func(r storage.Reader) error {
			tr.r = r
			var err error
			v, err = query(ctx, tr)
			return err
		})
		if err != nil {
			// Keep watching what the failed run managed to read.
			if sub.deps == nil {
				sub.deps = tr.deps
			} else {
				sub.deps.merge(tr.deps)
			}
			h.log.Error("Live query failed", "subscription", sub.label(), "error", err)
			if o.onError != nil {
				o.onError(err)
			}
			if hasLast {
				onNext(last)
			}
			return
		}

		sub.deps = tr.deps
		last, hasLast = v, true
		onNext(v)
	}

	h.add(sub)
	if !h.queue.Enqueue(func() {
		if !sub.closed.Load() {
			sub.recompute(h.ctx)
		}
	}) {
		sub.closed.Store(true)
		h.remove(sub)
	}
	return sub
}

func (s *Subscription) label() string {
	if s.name != "" {
		return s.name
	}
	return fmt.Sprintf("sub-%d", s.id)
}
