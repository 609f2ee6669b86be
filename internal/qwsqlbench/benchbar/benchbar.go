// Package benchbar provides a really simple progress bar for the benchmarking
// process.
package benchbar

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Bar counts finished items. It is safe for concurrent use.
type Bar struct {
	mu       sync.Mutex
	pb       *progressbar.ProgressBar
	done     int
	maxItems int
}

// NewBar returns a bar printing to stdout.
func NewBar(description string, maxItems int) *Bar {
	return newBar(progressbar.Default(int64(maxItems), description), maxItems)
}

// NewSilentBar returns a bar that only counts.
func NewSilentBar(maxItems int) *Bar {
	return newBar(progressbar.DefaultSilent(int64(maxItems)), maxItems)
}

// NewBarTo returns a bar printing to w.
func NewBarTo(w io.Writer, description string, maxItems int) *Bar {
	return newBar(progressbar.NewOptions(
		maxItems,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	), maxItems)
}

func newBar(pb *progressbar.ProgressBar, maxItems int) *Bar {
	_ = pb.Set(0)
	return &Bar{pb: pb, maxItems: maxItems}
}

// Inc marks one more item as finished.
func (b *Bar) Inc() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done++
	_ = b.pb.Add(1)
}

// Done returns how many items finished.
func (b *Bar) Done() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// Finish completes and closes the bar.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.pb.Finish()
	_ = b.pb.Close()
}
