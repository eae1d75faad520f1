package governor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdmitRejectsWhenFull(t *testing.T) {
	g := New(3, 1)

	for range 3 {
		_, err := g.Admit()
		require.NoError(t, err)
	}

	done := make(chan error, 1)

	go func() {
		_, err := g.Admit()
		done <- err
	}()

	select {
	case err := <-done:
		var rejected *RejectedError
		require.True(t, errors.As(err, &rejected))

		require.Equal(t, 3, rejected.Depth)
		require.Equal(t, 3, rejected.Max)

	case <-time.After(time.Second):
		t.Fatal("admit blocked on a full queue")
	}
}

func TestAdmitNIsAllOrNothing(t *testing.T) {
	g := New(5, 2)

	_, err := g.AdmitN(3)
	require.NoError(t, err)

	_, err = g.AdmitN(3)
	require.Error(t, err)

	require.Equal(t, Status{Active: 0, Queued: 3, MaxQueueSize: 5, Concurrency: 2}, g.Status())
}

func TestReleaseMakesRoom(t *testing.T) {
	g := New(1, 1)

	slot, err := g.Admit()
	require.NoError(t, err)

	_, err = g.Admit()
	require.Error(t, err)

	slot.Release()
	slot.Release()

	_, err = g.Admit()
	require.NoError(t, err)

	require.Equal(t, 1, g.Status().Queued)
}

func TestAcquireBoundsConcurrency(t *testing.T) {
	g := New(10, 2)

	slots, err := g.AdmitN(3)
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, slots[0].Acquire(ctx))
	require.NoError(t, slots[1].Acquire(ctx))

	require.Equal(t, Status{Active: 2, Queued: 1, MaxQueueSize: 10, Concurrency: 2}, g.Status())

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	require.Error(t, slots[2].Acquire(timeout))
	require.Zero(t, g.Status().Waiting)

	slots[0].Release()

	require.NoError(t, slots[2].Acquire(ctx))
	require.Equal(t, Status{Active: 2, Queued: 0, MaxQueueSize: 10, Concurrency: 2}, g.Status())

	slots[1].Release()
	slots[2].Release()

	require.Equal(t, Status{Active: 0, Queued: 0, MaxQueueSize: 10, Concurrency: 2}, g.Status())
}

func TestAcquireIsFIFO(t *testing.T) {
	g := New(10, 1)
	ctx := context.Background()

	first, _ := g.Admit()
	require.NoError(t, first.Acquire(ctx))

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup

	for i := range 3 {
		slot, err := g.Admit()
		require.NoError(t, err)

		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := slot.Acquire(ctx); err != nil {
				return
			}

			mu.Lock()
			order = append(order, i)
			mu.Unlock()

			slot.Release()
		}()

		// the next waiter starts only once this one is blocked
		require.Eventually(t, func() bool {
			return g.Status().Waiting == i+1
		}, time.Second, time.Millisecond)
	}

	first.Release()
	wg.Wait()

	require.Equal(t, []int{0, 1, 2}, order)
	require.Zero(t, g.Status().Waiting)
}

func TestConcurrentAdmit(t *testing.T) {
	g := New(50, 4)

	var wg sync.WaitGroup
	var mu sync.Mutex

	accepted := 0

	for range 200 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := g.Admit(); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	require.Equal(t, 50, accepted)
	require.Equal(t, 50, g.Status().Queued)
}
