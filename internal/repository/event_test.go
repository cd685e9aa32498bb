package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stripe-points-service/internal/model"

	"github.com/stretchr/testify/require"
)

func TestEventUpsertReportsFirstSuccessOnly(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	event := &model.PurchaseEvent{
		ExternalSessionID: "cs_100",
		CustomerID:        "alice@example.com",
		ProductID:         strPtr("points_20"),
		Status:            model.StatusPaymentSuccess,
		PointsAwarded:     20,
	}

	newlySucceeded, err := repo.Upsert(ctx, event)
	require.NoError(t, err)
	require.True(t, newlySucceeded)

	// redelivery of the same notification
	duplicate := &model.PurchaseEvent{
		ExternalSessionID: "cs_100",
		CustomerID:        "alice@example.com",
		ProductID:         strPtr("points_20"),
		Status:            model.StatusPaymentSuccess,
		PointsAwarded:     20,
	}
	newlySucceeded, err = repo.Upsert(ctx, duplicate)
	require.NoError(t, err)
	require.False(t, newlySucceeded)

	events, err := repo.ListByCustomer(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestEventUpsertInitiatedThenSuccess(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	newlySucceeded, err := repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "cs_200",
		CustomerID:        "bob@example.com",
		ProductID:         strPtr("points_50"),
		Status:            model.StatusInitiated,
	})
	require.NoError(t, err)
	require.False(t, newlySucceeded)

	newlySucceeded, err = repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "cs_200",
		CustomerID:        "bob@example.com",
		ProductID:         strPtr("points_50"),
		Status:            model.StatusPaymentSuccess,
		PointsAwarded:     50,
	})
	require.NoError(t, err)
	require.True(t, newlySucceeded)

	stored, err := repo.FindBySessionID(ctx, "cs_200")
	require.NoError(t, err)
	require.Equal(t, model.StatusPaymentSuccess, stored.Status)
	require.Equal(t, 50, stored.PointsAwarded)
}

// Two deliveries of the same success notification racing each other must
// produce exactly one transition report, whatever order the writes land in.
func TestEventUpsertConcurrentDuplicateSuccess(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	const rounds = 25
	for i := 0; i < rounds; i++ {
		sessionID := fmt.Sprintf("cs_race_%d", i)

		var (
			wg       sync.WaitGroup
			reported int32
		)
		errs := make(chan error, 2)
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				newlySucceeded, err := repo.Upsert(ctx, &model.PurchaseEvent{
					ExternalSessionID: sessionID,
					CustomerID:        "alice@example.com",
					ProductID:         strPtr("points_20"),
					Status:            model.StatusPaymentSuccess,
					PointsAwarded:     20,
				})
				if err != nil {
					errs <- err
					return
				}
				if newlySucceeded {
					atomic.AddInt32(&reported, 1)
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		require.EqualValues(t, 1, reported, sessionID)
	}
}

func TestEventUpsertCancellationDoesNotDowngradeSuccess(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	newlySucceeded, err := repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "cs_600",
		CustomerID:        "erin@example.com",
		ProductID:         strPtr("points_20"),
		Status:            model.StatusPaymentSuccess,
		PointsAwarded:     20,
	})
	require.NoError(t, err)
	require.True(t, newlySucceeded)

	// stale expiry replayed after the credit
	newlySucceeded, err = repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "cs_600",
		CustomerID:        "erin@example.com",
		Status:            model.StatusCancelled,
	})
	require.NoError(t, err)
	require.False(t, newlySucceeded)

	stored, err := repo.FindBySessionID(ctx, "cs_600")
	require.NoError(t, err)
	require.Equal(t, model.StatusPaymentSuccess, stored.Status)
	require.Equal(t, 20, stored.PointsAwarded)
}

func TestEventUpsertSuccessOverwritesCancelled(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	newlySucceeded, err := repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "cs_700",
		CustomerID:        "frank@example.com",
		Status:            model.StatusCancelled,
	})
	require.NoError(t, err)
	require.False(t, newlySucceeded)

	newlySucceeded, err = repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "cs_700",
		CustomerID:        "frank@example.com",
		ProductID:         strPtr("points_50"),
		Status:            model.StatusPaymentSuccess,
		PointsAwarded:     50,
	})
	require.NoError(t, err)
	require.True(t, newlySucceeded)

	stored, err := repo.FindBySessionID(ctx, "cs_700")
	require.NoError(t, err)
	require.Equal(t, model.StatusPaymentSuccess, stored.Status)
}

func TestEventUpsertLatestWins(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "pi_300",
		CustomerID:        "carol@example.com",
		Status:            model.StatusPaymentFailed,
		Details:           `{"reason":"card_declined"}`,
	})
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "pi_300",
		CustomerID:        "carol@example.com",
		Status:            model.StatusPaymentFailed,
		Details:           `{"reason":"insufficient_funds"}`,
	})
	require.NoError(t, err)

	events, err := repo.ListByCustomer(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, `{"reason":"insufficient_funds"}`, events[0].Details)
}

func TestEventUpsertKeepsCreatedAt(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "cs_400",
		CustomerID:        "dave@example.com",
		Status:            model.StatusInitiated,
	})
	require.NoError(t, err)

	first, err := repo.FindBySessionID(ctx, "cs_400")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = repo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: "cs_400",
		CustomerID:        "dave@example.com",
		Status:            model.StatusCancelled,
	})
	require.NoError(t, err)

	second, err := repo.FindBySessionID(ctx, "cs_400")
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, second.Status)
	require.True(t, second.CreatedAt.Equal(first.CreatedAt))
}

func TestEventListBySellerMonthFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	for _, e := range []*model.PurchaseEvent{
		{ExternalSessionID: "cs_501", CustomerID: "a@x.com", SellerID: 7, Status: model.StatusPaymentSuccess, PointsAwarded: 20},
		{ExternalSessionID: "cs_502", CustomerID: "b@x.com", SellerID: 7, Status: model.StatusPaymentFailed},
		{ExternalSessionID: "cs_503", CustomerID: "c@x.com", SellerID: 8, Status: model.StatusPaymentSuccess, PointsAwarded: 50},
	} {
		_, err := repo.Upsert(ctx, e)
		require.NoError(t, err)
	}

	// push one seller-7 row out of the current month
	lastMonth := time.Now().AddDate(0, -1, 0)
	require.NoError(t, db.Model(&model.PurchaseEvent{}).
		Where("external_session_id = ?", "cs_502").
		Update("created_at", lastMonth).Error)

	all, err := repo.ListBySeller(ctx, 7, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	thisMonth, err := repo.ListBySeller(ctx, 7, time.Now().Format("2006-01"))
	require.NoError(t, err)
	require.Len(t, thisMonth, 1)
	require.Equal(t, "cs_501", thisMonth[0].ExternalSessionID)

	_, err = repo.ListBySeller(ctx, 7, "september")
	require.Error(t, err)
}
