package kafka

import (
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shardlog/stream"
)

func TestCursorRoundTrip(t *testing.T) {
	partition, offset, err := parseCursor(stream.Cursor("0:41"))
	require.NoError(t, err)
	assert.Equal(t, int32(0), partition)
	assert.Equal(t, int64(41), offset)

	_, _, err = parseCursor(stream.Cursor("garbage"))
	assert.Error(t, err)
}

func TestMapErrTranslatesQuotaSignal(t *testing.T) {
	err := mapErr(sarama.ErrThrottlingQuotaExceeded)
	assert.ErrorIs(t, err, stream.ErrThroughputExceeded)

	err = mapErr(fmt.Errorf("wrapped: %w", sarama.ErrThrottlingQuotaExceeded))
	assert.ErrorIs(t, err, stream.ErrThroughputExceeded)

	other := fmt.Errorf("broker down")
	assert.Equal(t, other, mapErr(other))
}
