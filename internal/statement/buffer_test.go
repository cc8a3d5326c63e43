package statement

import (
	"context"
	"errors"
	"testing"

	"github.com/joacominatel/minastmt/internal/database"
	"github.com/joacominatel/minastmt/internal/database/enginemock"
)

var errLinkDown = errors.New("link down")

func executedCursor(t *testing.T, m *enginemock.Mock, text string, binds ...any) database.Cursor {
	t.Helper()

	ctx := context.Background()
	cur, err := m.Prepare(ctx, text)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	for i, b := range binds {
		if err := m.Bind(ctx, cur, i, b); err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
	}
	if err := m.Execute(ctx, cur); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	return cur
}

func drain(t *testing.T, b *fetchBuffer) []int64 {
	t.Helper()

	var got []int64
	for {
		ok, err := b.advance(context.Background())
		if err != nil {
			t.Fatalf("advance failed: %v", err)
		}
		if !ok {
			return got
		}
		got = append(got, b.current()[0].(int64))
	}
}

func TestFetchBufferWindows(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name        string
		size        int
		lower       int64
		wantRows    int
		wantFetches int
	}{
		{name: "short last batch", size: 3, lower: 2, wantRows: 5, wantFetches: 2},
		{name: "exact multiple", size: 5, lower: 2, wantRows: 5, wantFetches: 2},
		{name: "single row windows", size: 1, lower: 4, wantRows: 3, wantFetches: 4},
		{name: "one big window", size: 100, lower: 1, wantRows: 6, wantFetches: 1},
		{name: "empty result", size: 3, lower: 99, wantRows: 0, wantFetches: 1},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := newTestEngine(t)
			b := newFetchBuffer(m, executedCursor(t, m, sqlLowerBound, tc.lower), tc.size)

			got := drain(t, b)
			if len(got) != tc.wantRows {
				t.Fatalf("got %d rows %v, want %d", len(got), got, tc.wantRows)
			}
			for i, v := range got {
				if v != tc.lower+int64(i) {
					t.Fatalf("row %d = %d, want %d", i, v, tc.lower+int64(i))
				}
			}
			if b.fetches != tc.wantFetches {
				t.Fatalf("fetches = %d, want %d", b.fetches, tc.wantFetches)
			}
			for _, n := range m.Stats().FetchSizes {
				if n != tc.size {
					t.Fatalf("fetch requested %d rows, want %d", n, tc.size)
				}
			}

			// Further advances after the end do not reach the engine.
			if ok, err := b.advance(context.Background()); ok || err != nil {
				t.Fatalf("advance after end = %v, %v", ok, err)
			}
			if m.Stats().Fetches != tc.wantFetches {
				t.Fatalf("engine fetched again after end")
			}
			if b.current() != nil {
				t.Fatalf("current after end = %v", b.current())
			}
		})
	}
}

func TestFetchBufferPoisoned(t *testing.T) {
	t.Parallel()

	m2 := enginemock.New(enginemock.Config{FailFetchAt: 2, Error: errLinkDown})
	m2.Handle(sqlLowerBound, func(binds []any) (*enginemock.Result, error) {
		return filterIntCol(func(n int64) bool { return n >= bindInt(binds) }, true), nil
	})
	cur := executedCursor(t, m2, sqlLowerBound, int64(1))

	b := newFetchBuffer(m2, cur, 2)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if ok, err := b.advance(ctx); !ok || err != nil {
			t.Fatalf("advance %d = %v, %v", i, ok, err)
		}
	}

	_, err := b.advance(ctx)
	if !errors.Is(err, ErrFetch) || !errors.Is(err, errLinkDown) {
		t.Fatalf("advance error = %v, want ErrFetch wrapping link down", err)
	}
	_, again := b.advance(ctx)
	if again != err {
		t.Fatalf("poisoned buffer returned %v, want the original error", again)
	}
	if m2.Stats().Fetches != 2 {
		t.Fatalf("fetches = %d, want 2 (no retry)", m2.Stats().Fetches)
	}
}

type oversizedDriver struct {
	*enginemock.Mock
}

func (d oversizedDriver) Fetch(_ context.Context, _ database.Cursor, maxRows int) ([]database.RawRow, error) {
	return make([]database.RawRow, maxRows+1), nil
}

func TestFetchBufferRejectsOversizedBatch(t *testing.T) {
	t.Parallel()

	m := newTestEngine(t)
	cur := executedCursor(t, m, sqlLowerBound, int64(1))
	b := newFetchBuffer(oversizedDriver{m}, cur, 2)

	if _, err := b.advance(context.Background()); !errors.Is(err, ErrEngine) {
		t.Fatalf("advance error = %v, want ErrEngine", err)
	}
}
