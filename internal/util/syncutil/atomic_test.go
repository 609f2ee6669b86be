package syncutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAtomic(t *testing.T) {
	t.Run("ZeroValue", func(t *testing.T) {
		var a Atomic[int]
		assert.Equal(t, 0, a.Load())
		assert.Equal(t, 0, a.Swap(3))
		assert.Equal(t, 3, a.Load())
	})

	t.Run("String", func(t *testing.T) {
		a := NewAtomicString("main.db")
		assert.Equal(t, "main.db", a.Load())

		assert.Equal(t, "main.db", a.Swap("notes.db"))
		assert.Equal(t, "notes.db", a.Load())
	})

	t.Run("Time", func(t *testing.T) {
		now := time.Now()
		tomorrow := now.AddDate(0, 0, 1)

		a := NewAtomicTime(now)
		assert.Equal(t, now, a.Load())

		a.Store(tomorrow)
		assert.Equal(t, tomorrow, a.Load())
	})

	t.Run("Concurrent", func(t *testing.T) {
		a := NewAtomicString("")
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.Store(fmt.Sprintf("db%d", i))
				_ = a.Load()
			}()
		}
		wg.Wait()
		assert.Contains(t, a.Load(), "db")
	})
}
