package obslog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samesky/pkg/models"
)

type countingProvider struct {
	calls map[string]int
}

func (c *countingProvider) ForDate(_ context.Context, date models.Date) (Result, error) {
	c.calls[date.String()]++
	if date.Day == 13 {
		return Unavailable("no log"), nil
	}
	return OK([]models.Observation{{FieldID: date.Day}}), nil
}

func TestMemoLoadsEachDateOnce(t *testing.T) {
	inner := &countingProvider{calls: map[string]int{}}
	m := NewMemo(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := m.ForDate(ctx, mustDate(t, "2021-10-12"))
		require.NoError(t, err)
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, 12, res.Observations[0].FieldID)

		res, err = m.ForDate(ctx, mustDate(t, "2021-10-13"))
		require.NoError(t, err)
		assert.Equal(t, StatusUnavailable, res.Status)
	}

	assert.Equal(t, map[string]int{"2021-10-12": 1, "2021-10-13": 1}, inner.calls)
}
