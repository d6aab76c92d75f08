package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loc string

func (l loc) URL() string { return string(l) }

func visitN(h *History, n int) []loc {
	locs := make([]loc, n)
	for i := range locs {
		locs[i] = loc(fmt.Sprintf("https://example.org/%d", i+1))
		h.Visit(locs[i])
	}
	return locs
}

func TestCurrentOnEmptyHistory(t *testing.T) {
	h := New(0, 0)
	_, err := h.Current()
	assert.ErrorIs(t, err, ErrNoCurrentLocation)
	assert.Nil(t, h.Latest())
}

func TestVisitTracksCurrent(t *testing.T) {
	h := New(0, 0)
	locs := visitN(h, 3)

	cur, err := h.Current()
	require.NoError(t, err)
	assert.Equal(t, locs[2], cur)
	assert.Equal(t, 3, h.Len())
}

func TestDuplicateVisitIsNoOp(t *testing.T) {
	h := New(0, 0)
	locs := visitN(h, 2)
	_, err := h.Back(1)
	require.NoError(t, err)
	require.Equal(t, 1, h.ForwardLen())

	// Re-visiting the current URL must neither grow back nor clear forward.
	h.Visit(locs[0])
	assert.Equal(t, 1, h.BackLen())
	assert.Equal(t, 1, h.ForwardLen())

	h.Visit(loc("https://example.org/new"))
	assert.Equal(t, 0, h.ForwardLen())
}

func TestBackForwardRoundTrip(t *testing.T) {
	h := New(0, 0)
	locs := visitN(h, 5)

	cur, err := h.Back(4)
	require.NoError(t, err)
	assert.Equal(t, locs[0], cur)
	assert.Equal(t, 5, h.Len())

	cur, err = h.Forward(4)
	require.NoError(t, err)
	assert.Equal(t, locs[4], cur)
	assert.Equal(t, 5, h.Len())
}

func TestBackClampsAtOldestLocation(t *testing.T) {
	h := New(0, 0)
	locs := visitN(h, 2)

	cur, err := h.Back(10)
	require.NoError(t, err)
	assert.Equal(t, locs[0], cur)
	assert.Equal(t, 1, h.BackLen())
	assert.Equal(t, 1, h.ForwardLen())
}

func TestGo(t *testing.T) {
	h := New(0, 0)
	locs := visitN(h, 3)

	cur, err := h.Go(-2)
	require.NoError(t, err)
	assert.Equal(t, locs[0], cur)

	cur, err = h.Go(1)
	require.NoError(t, err)
	assert.Equal(t, locs[1], cur)

	cur, err = h.Go(0)
	require.NoError(t, err)
	assert.Equal(t, locs[1], cur)
}

func TestEntriesOrderedMostFutureFirst(t *testing.T) {
	h := New(0, 0)
	locs := visitN(h, 4)
	_, err := h.Back(2)
	require.NoError(t, err)

	entries := h.Entries()
	require.Len(t, entries, 4)

	offsets := make([]int, len(entries))
	for i, e := range entries {
		offsets[i] = e.Offset
	}
	assert.Equal(t, []int{2, 1, 0, -1}, offsets)
	assert.Equal(t, locs[3], entries[0].Location)
	assert.Equal(t, locs[1], entries[2].Location)
	assert.Equal(t, locs[0], entries[3].Location)
}

func TestBoundedBackEvictsOldest(t *testing.T) {
	h := New(2, 0) // two prior locations plus the current one
	locs := visitN(h, 5)

	cur, err := h.Back(10)
	require.NoError(t, err)
	assert.Equal(t, locs[2], cur)
	assert.Equal(t, 3, h.Len())
}

func TestBoundedForwardDropsOverflow(t *testing.T) {
	h := New(0, 2)
	visitN(h, 5)
	_, err := h.Back(4)
	require.NoError(t, err)
	assert.Equal(t, 2, h.ForwardLen())
}
