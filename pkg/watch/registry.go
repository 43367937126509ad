// Package watch implements the per-key subscriber registry used by the
// mutable name store (spec §4.10): fan-out notification on change, with
// per-subscriber backpressure rather than drops.
package watch

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// bufferSize bounds each subscriber's channel. The registry blocks the
// notifying goroutine when a subscriber's buffer is full rather than
// dropping events (spec §5: "the registry suspends producers on full
// buffers").
const bufferSize = 16

// Subscription is a live watch on a single key. Values arrives in
// linearized order for that key; Close drops the subscription.
type Subscription[V any] struct {
	Values <-chan V
	cancel func()
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription[V]) Close() {
	s.cancel()
}

// subscriber pairs a subscriber's channel with a lock that serializes
// sends against close: Notify holds sub.mu only for the duration of its
// own send, and close holds it while marking the subscriber closed and
// closing the channel, so a close can never run concurrently with a
// send on the same channel (which would panic).
type subscriber[V any] struct {
	ch     chan V
	mu     sync.Mutex
	closed bool
}

// send delivers v unless the subscriber has already been closed, in
// which case it is silently dropped (the subscription is gone either
// way). Returns whether it was delivered.
func (s *subscriber[V]) send(v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.ch <- v
	return true
}

func (s *subscriber[V]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Registry is a per-key subscriber set, generic over the key type (branch
// tags) and the notified value type (commit hashes, or absent via a
// pointer/zero-value convention chosen by the caller).
type Registry[K comparable, V any] struct {
	mu   sync.Mutex
	subs map[K]map[int]*subscriber[V]
	next int

	notifyTotal prometheus.Counter
	subscribers prometheus.Gauge
}

// NewRegistry creates an empty registry. metricsLabel namespaces the
// Prometheus counters so multiple registries (branch tags vs. snapshot
// keys) don't collide.
func NewRegistry[K comparable, V any](metricsLabel string) *Registry[K, V] {
	return &Registry[K, V]{
		subs: make(map[K]map[int]*subscriber[V]),
		notifyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dagkv_watch_notify_total",
			Help:        "Total notifications delivered by the watch registry.",
			ConstLabels: prometheus.Labels{"registry": metricsLabel},
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "dagkv_watch_subscribers",
			Help:        "Current live subscriptions on the watch registry.",
			ConstLabels: prometheus.Labels{"registry": metricsLabel},
		}),
	}
}

// Collectors returns the registry's Prometheus collectors for the caller
// to register with its own registerer.
func (r *Registry[K, V]) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.notifyTotal, r.subscribers}
}

// Watch subscribes to key k. If hasInitial, initial is delivered as the
// first value on the returned channel before any live notification.
func (r *Registry[K, V]) Watch(k K, initial V, hasInitial bool) *Subscription[V] {
	r.mu.Lock()
	s := &subscriber[V]{ch: make(chan V, bufferSize)}
	if hasInitial {
		s.ch <- initial
	}
	id := r.next
	r.next++
	if r.subs[k] == nil {
		r.subs[k] = make(map[int]*subscriber[V])
	}
	r.subs[k][id] = s
	r.mu.Unlock()

	r.subscribers.Inc()

	cancel := func() {
		r.mu.Lock()
		m, ok := r.subs[k]
		var removed *subscriber[V]
		if ok {
			if present, ok := m[id]; ok {
				removed = present
				delete(m, id)
				r.subscribers.Dec()
			}
			if len(m) == 0 {
				delete(r.subs, k)
			}
		}
		r.mu.Unlock()

		// Close outside r.mu: close() takes the subscriber's own lock,
		// which also guards Notify's concurrent send on the same
		// channel, so the two can never race into a send-on-closed
		// panic regardless of which acquires it first.
		if removed != nil {
			removed.close()
		}
	}

	return &Subscription[V]{Values: s.ch, cancel: cancel}
}

// Notify delivers v to every current subscriber of k. It blocks per
// subscriber until their buffer accepts it (backpressure, not drop), so a
// slow consumer stalls the notifying goroutine but never loses an update.
// A subscriber concurrently closed (via Subscription.Close) is simply
// skipped rather than sent to.
func (r *Registry[K, V]) Notify(k K, v V) {
	r.mu.Lock()
	subs := make([]*subscriber[V], 0, len(r.subs[k]))
	for _, s := range r.subs[k] {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		if s.send(v) {
			r.notifyTotal.Inc()
		}
	}
}

// Clear drops every subscription on every key, closing their channels.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	all := make([]*subscriber[V], 0, len(r.subs))
	for k, m := range r.subs {
		for id, s := range m {
			all = append(all, s)
			delete(m, id)
			r.subscribers.Dec()
		}
		delete(r.subs, k)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
