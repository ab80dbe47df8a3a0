package condense

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLog_AppendAndRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := NewMemoryLog()

	require.NoError(t, log.Append(ctx, 0, 0, "r0s0"))
	require.NoError(t, log.Append(ctx, 0, 1, "r0s1"))
	require.NoError(t, log.Append(ctx, 1, 0, "r1s0"))

	round, err := log.Round(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"r0s0", "r0s1"}, round)

	missing, err := log.Round(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.Equal(t, [][]string{{"r0s0", "r0s1"}, {"r1s0"}}, log.Rounds())
}

func TestMemoryLog_RejectsOutOfOrderAppends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := NewMemoryLog()

	assert.Error(t, log.Append(ctx, 1, 0, "skips round 0"))
	require.NoError(t, log.Append(ctx, 0, 0, "ok"))
	assert.Error(t, log.Append(ctx, 0, 2, "skips section 1"))
	assert.Error(t, log.Append(ctx, 0, 0, "duplicate"))
}

func TestMemoryLog_ReadsAreCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := NewMemoryLog()
	require.NoError(t, log.Append(ctx, 0, 0, "original"))

	round, err := log.Round(ctx, 0)
	require.NoError(t, err)
	round[0] = "changed"

	again, err := log.Round(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"original"}, again)
}
