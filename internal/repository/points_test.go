package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyPointsCreatesAndIncrements(t *testing.T) {
	repo := NewPointsRepository(newTestDB(t))
	ctx := context.Background()

	total, err := repo.ApplyPoints(ctx, "alice@example.com", 20)
	require.NoError(t, err)
	require.Equal(t, 20, total)

	total, err = repo.ApplyPoints(ctx, "alice@example.com", 50)
	require.NoError(t, err)
	require.Equal(t, 70, total)

	// other customers are independent rows
	total, err = repo.ApplyPoints(ctx, "bob@example.com", 120)
	require.NoError(t, err)
	require.Equal(t, 120, total)

	balance, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, 70, balance.TotalPoints)
}

func TestGetUnknownCustomerIsZero(t *testing.T) {
	repo := NewPointsRepository(newTestDB(t))

	balance, err := repo.Get(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Equal(t, 0, balance.TotalPoints)
}
