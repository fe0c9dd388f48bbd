package logic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	t.Run("nested holders", func(t *testing.T) {
		var g Guard
		outer := g.Acquire()
		inner := g.Acquire()
		assert.True(t, g.Active())

		inner()
		assert.True(t, g.Active(), "outer holder still active")
		outer()
		assert.False(t, g.Active())
	})

	t.Run("release is idempotent", func(t *testing.T) {
		var g Guard
		first := g.Acquire()
		second := g.Acquire()
		first()
		first()
		assert.True(t, g.Active(), "double release must not free the other holder")
		second()
		assert.False(t, g.Active())
	})

	t.Run("released on panic", func(t *testing.T) {
		var g Guard
		func() {
			defer func() { _ = recover() }()
			release := g.Acquire()
			defer release()
			panic("boom")
		}()
		assert.False(t, g.Active())
	})

	t.Run("concurrent holders", func(t *testing.T) {
		var g Guard
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release := g.Acquire()
				release()
			}()
		}
		wg.Wait()
		assert.False(t, g.Active())
	})
}
