package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarioA_SeparatorLatestWins(t *testing.T) {
	q := newBufferQueue(Config{Mode: modeSeparator, Separator: '\n'})
	q.Append([]byte("a\nbb\nccc\n"))

	rec := q.Locate(0, 1)
	require.True(t, rec.Have)
	require.Equal(t, "ccc", string(rec.Bytes()))
}

func TestScenarioB_SeparatorWindow(t *testing.T) {
	q := newBufferQueue(Config{Mode: modeSeparator, Separator: '\n'})
	q.Append([]byte("a\nbb\nccc\n"))

	rec := q.Locate(1, 2)
	require.True(t, rec.Have)
	require.Equal(t, "bb", string(rec.Bytes()))
}

func TestScenarioC_FixedLengthTrailingDiscarded(t *testing.T) {
	q := newBufferQueue(Config{Mode: modeFixedLength, FixedLength: 4})
	q.Append([]byte("ABCDEFGHIJ")) // 10 bytes: 2 full records + 2 trailing

	rec := q.Locate(0, 1)
	require.True(t, rec.Have)
	require.Equal(t, "EFGH", string(rec.Bytes()))
}

func TestPartialRecordNeverIncluded(t *testing.T) {
	q := newBufferQueue(Config{Mode: modeSeparator, Separator: '\n'})
	q.Append([]byte("aaa\nbbb")) // trailing "bbb" has no separator yet

	rec := q.Locate(0, 1)
	require.True(t, rec.Have)
	require.Equal(t, "aaa", string(rec.Bytes()))
}

func TestLocateAcrossMultipleAppends(t *testing.T) {
	q := newBufferQueue(Config{Mode: modeSeparator, Separator: '\n'})
	q.Append([]byte("one\ntwo\n"))
	q.Append([]byte("three\n"))

	rec := q.Locate(0, 1)
	require.Equal(t, "three", string(rec.Bytes()))

	// a multi-record window is one contiguous slice; separators
	// between the records it spans are not stripped, only the ones
	// delimiting the window itself.
	rec = q.Locate(1, 3)
	require.Equal(t, "one\ntwo", string(rec.Bytes()))
}

func TestLocateUnavailableWindow(t *testing.T) {
	q := newBufferQueue(Config{Mode: modeSeparator, Separator: '\n'})
	q.Append([]byte("only\n"))

	rec := q.Locate(0, 5)
	require.False(t, rec.Have)
}

func TestReclaimStopsAtCurrentRecordStart(t *testing.T) {
	q := newBufferQueue(Config{Mode: modeSeparator, Separator: '\n'})
	first := q.Append([]byte("r0\n"))
	q.Append([]byte("r1\n"))

	rec := q.Locate(0, 1)
	q.Reclaim(rec.Begin.Buf)

	require.NotEqual(t, first, q.head, "the buffer holding the superseded record should be reclaimed")
	require.Equal(t, "r1", string(rec.Bytes()))
}
