package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected Updated() to signal")
	}
}

func TestQueuePushPop(t *testing.T) {
	q := New[int](4, nil)

	q.Push(1)
	drainSignal(t, q.Updated())
	q.Push(2)
	drainSignal(t, q.Updated())

	require.Equal(t, 2, q.Len())

	v, ok := q.PeekFront()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.PopFront()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.PopFront()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.PopFront()
	assert.False(t, ok)
}

func TestQueueDropOldest(t *testing.T) {
	var dropped []int

	q := New[int](2, func(d any) { dropped = append(dropped, d.(int)) })

	q.Push(1)
	q.Push(2)
	q.Push(3) // drops 1

	assert.Equal(t, []int{1}, dropped)
	assert.Equal(t, 2, q.Len())

	v, _ := q.PeekFront()
	assert.Equal(t, 2, v)
}

func TestQueueZeroCapacityAlwaysDrops(t *testing.T) {
	var dropped []int

	q := New[int](0, func(d any) { dropped = append(dropped, d.(int)) })

	q.Push(7)

	assert.Equal(t, []int{7}, dropped)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainAll(t *testing.T) {
	q := New[int](4, nil)

	q.Push(1)
	q.Push(2)
	q.Push(3)

	items := q.DrainAll()
	assert.Equal(t, []int{1, 2, 3}, items)
	assert.Equal(t, 0, q.Len())
}

func TestQueueClearSuppressesOnDrop(t *testing.T) {
	called := false
	q := New[int](4, func(d any) { called = true })

	q.Push(1)
	q.Clear()

	assert.False(t, called)
	assert.Equal(t, 0, q.Len())
}
