package syncq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	queued, err := Load()
	require.NoError(t, err)
	assert.Empty(t, queued)

	cmd := Command{
		Method:         "POST",
		Path:           "/v1/gigs",
		Body:           map[string]any{"venue_id": float64(3)},
		IdempotencyKey: "idem-1",
	}
	require.NoError(t, Push(cmd))
	require.NoError(t, Push(Command{Method: "POST", Path: "/v1/bands", IdempotencyKey: "idem-2"}))

	queued, err = Load()
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, cmd, queued[0])
	assert.Equal(t, "idem-2", queued[1].IdempotencyKey)

	require.NoError(t, Clear())
	queued, err = Load()
	require.NoError(t, err)
	assert.Empty(t, queued)
}
