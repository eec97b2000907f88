package accounting

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAccountingDispatchAndComplete(t *testing.T) {
	var w WriteAccounting
	w.OnWriteDispatch(4)
	w.OnWriteDispatch(2)
	require.Equal(t, uint64(6), w.PendingWrites())
	require.Equal(t, uint64(6), w.DispatchedSinceAdmission())

	w.OnWriteComplete(2)
	require.Equal(t, uint64(4), w.PendingWrites())
	require.Equal(t, uint64(6), w.DispatchedSinceAdmission())

	w.ResetDispatchedSinceAdmission()
	require.Equal(t, uint64(0), w.DispatchedSinceAdmission())
	require.Equal(t, uint64(4), w.PendingWrites())
}

func TestStreamsFanOutToBothStreams(t *testing.T) {
	var s Streams
	s.OnWriteDispatch(5)
	require.Equal(t, uint64(5), s.Reset.PendingWrites())
	require.Equal(t, uint64(5), s.Finish.PendingWrites())

	s.OnWriteComplete(5)
	require.Equal(t, uint64(0), s.Reset.PendingWrites())
	require.Equal(t, uint64(0), s.Finish.PendingWrites())
}
