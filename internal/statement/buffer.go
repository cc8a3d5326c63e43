package statement

import (
	"context"
	"errors"
	"fmt"

	"github.com/joacominatel/minastmt/internal/database"
)

// fetchBuffer holds one window of fetched rows and a read position in it.
// The window is replaced as a whole on refill; serial changes on every
// advance so Row views can detect that they are stale.
type fetchBuffer struct {
	driver database.Driver
	cursor database.Cursor
	size   int

	window []database.RawRow
	pos    int
	serial uint64

	// last is set once a short batch was received.
	last bool
	done bool
	err  error

	fetches int
	rows    int
}

func newFetchBuffer(drv database.Driver, cur database.Cursor, size int) *fetchBuffer {
	return &fetchBuffer{driver: drv, cursor: cur, size: size, pos: -1}
}

// nextWindow replaces the window with exactly one batch from the engine.
func (b *fetchBuffer) nextWindow(ctx context.Context) error {
	batch, err := b.driver.Fetch(ctx, b.cursor, b.size)
	b.fetches++
	if err != nil {
		return errors.Join(ErrFetch, err)
	}
	if len(batch) > b.size {
		return fmt.Errorf("%w: engine returned %d rows for a fetch of %d", ErrEngine, len(batch), b.size)
	}
	b.window = batch
	b.pos = 0
	b.last = len(batch) < b.size
	b.rows += len(batch)
	return nil
}

// current returns the row under the read position, or nil.
func (b *fetchBuffer) current() database.RawRow {
	if b.done || b.err != nil || b.pos < 0 || b.pos >= len(b.window) {
		return nil
	}
	return b.window[b.pos]
}

// advance moves to the next row, fetching a new window when the current one
// is drained. It reports false at the end of the results. A fetch failure
// poisons the buffer and is returned again by every later call.
func (b *fetchBuffer) advance(ctx context.Context) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	if b.done {
		return false, nil
	}

	b.serial++
	if b.pos+1 < len(b.window) {
		b.pos++
		return true, nil
	}

	if b.last {
		b.finish()
		return false, nil
	}
	if err := b.nextWindow(ctx); err != nil {
		b.err = err
		b.window = nil
		return false, err
	}
	if len(b.window) == 0 {
		b.finish()
		return false, nil
	}
	return true, nil
}

// started reports whether the first fetch was issued.
func (b *fetchBuffer) started() bool {
	return b.fetches > 0
}

func (b *fetchBuffer) finish() {
	b.done = true
	b.window = nil
	b.pos = -1
}

// invalidate drops the window so Row views of it fail.
func (b *fetchBuffer) invalidate() {
	b.serial++
	b.finish()
}
