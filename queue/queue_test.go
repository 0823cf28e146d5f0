package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinFIFO(t *testing.T) {
	q := NewSpin[int]()
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	assert.Equal(t, 100, q.Len())

	for i := 0; i < 100; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.Empty())
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestSpinPushFromGoroutineThenPopAll(t *testing.T) {
	q := NewSpin[int]()
	const n = 10000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Push(i)
		}
	}()
	wg.Wait()

	seen := make(map[int]bool, n)
	for {
		v, ok := q.TryPop()
		if !ok {
			break
		}
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

func TestBlockingPopWaitsThenReturns(t *testing.T) {
	q := NewBlocking[string]()
	done := make(chan string, 1)
	go func() {
		v, err := q.Pop()
		require.NoError(t, err)
		done <- v
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push("hello")

	select {
	case v := <-done:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("Pop never returned")
	}
}

func TestBlockingCloseWakesWaiters(t *testing.T) {
	q := NewBlocking[int]()
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := q.Pop()
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()

	for i := 0; i < 4; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrClosed)
		case <-time.After(time.Second):
			t.Fatal("Pop never returned after Close")
		}
	}
}

func TestBlockingFIFO(t *testing.T) {
	q := NewBlocking[int]()
	for i := 0; i < 50; i++ {
		q.Push(i)
	}
	for i := 0; i < 50; i++ {
		v, err := q.Pop()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}
