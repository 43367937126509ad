package watch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWatchLiveness covers spec §8's liveness property: every subscriber
// that existed before an update observes it.
func TestWatchLiveness(t *testing.T) {
	r := NewRegistry[string, int]("test")
	sub := r.Watch("branch/main", 0, false)
	defer sub.Close()

	go r.Notify("branch/main", 42)

	select {
	case v := <-sub.Values:
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not observe update")
	}
}

func TestWatchInitialValueDeliveredFirst(t *testing.T) {
	r := NewRegistry[string, int]("test")
	sub := r.Watch("k", 7, true)
	defer sub.Close()

	require.Equal(t, 7, <-sub.Values)
}

func TestWatchIsPerKey(t *testing.T) {
	r := NewRegistry[string, int]("test")
	subA := r.Watch("a", 0, false)
	subB := r.Watch("b", 0, false)
	defer subA.Close()
	defer subB.Close()

	r.Notify("a", 1)

	select {
	case v := <-subA.Values:
		require.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("subscriber on a missed its update")
	}

	select {
	case v := <-subB.Values:
		t.Fatalf("subscriber on b should not have been notified, got %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchCloseStopsDelivery(t *testing.T) {
	r := NewRegistry[string, int]("test")
	sub := r.Watch("k", 0, false)
	sub.Close()

	_, ok := <-sub.Values
	require.False(t, ok)
}

func TestClearDropsAllSubscriptions(t *testing.T) {
	r := NewRegistry[string, int]("test")
	sub := r.Watch("k", 0, false)
	r.Clear()

	_, ok := <-sub.Values
	require.False(t, ok)
}

// TestNotifyAndCloseDoNotRace drives Notify and Subscription.Close against
// the same subscriber concurrently, many times, to catch the
// send-on-closed-channel panic a missing send/close lock would produce:
// Notify picking up a subscriber just as Close closes its channel.
func TestNotifyAndCloseDoNotRace(t *testing.T) {
	for i := 0; i < 500; i++ {
		r := NewRegistry[string, int]("race")
		sub := r.Watch("k", 0, false)

		drained := make(chan struct{})
		go func() {
			defer close(drained)
			for range sub.Values {
			}
		}()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Notify("k", i)
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
		wg.Wait()
		<-drained
	}
}
