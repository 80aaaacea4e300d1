package fa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BlockQueue_TrySend_DropsWhenFull(t *testing.T) {
	q := NewBlockQueue(2)
	assert.True(t, q.TrySend(WriteRequest{Offset: 0}))
	assert.True(t, q.TrySend(WriteRequest{Offset: 1}))
	assert.False(t, q.TrySend(WriteRequest{Offset: 2}), "third send must be dropped per the documented backpressure contract")

	req, ok := q.Receive()
	require.True(t, ok)
	assert.Equal(t, int64(0), req.Offset)
}

func Test_BlockQueue_Backlog_TracksHighWaterMark(t *testing.T) {
	q := NewBlockQueue(4)
	q.TrySend(WriteRequest{})
	q.TrySend(WriteRequest{})
	q.TrySend(WriteRequest{})
	assert.Equal(t, 3, q.Backlog())

	q.Receive()
	q.Receive()
	q.Receive()
	assert.Equal(t, 3, q.Backlog(), "backlog is a high-water mark, draining must not reset it")

	q.ResetBacklog()
	assert.Equal(t, 0, q.Backlog())
}

func Test_BlockQueue_Close_DrainsThenSignalsDone(t *testing.T) {
	q := NewBlockQueue(2)
	q.TrySend(WriteRequest{Offset: 7})
	q.Close()

	req, ok := q.Receive()
	require.True(t, ok)
	assert.Equal(t, int64(7), req.Offset)

	_, ok = q.Receive()
	assert.False(t, ok)
}
