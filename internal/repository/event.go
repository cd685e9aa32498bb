package repository

import (
	"context"
	"errors"
	"time"

	"stripe-points-service/internal/model"

	"gorm.io/gorm"
)

type EventRepository interface {
	Upsert(ctx context.Context, event *model.PurchaseEvent) (newlySucceeded bool, err error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.PurchaseEvent, error)
	ListRecent(ctx context.Context, limit int) ([]*model.PurchaseEvent, error)
	ListBySeller(ctx context.Context, sellerID int, month string) ([]*model.PurchaseEvent, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*model.PurchaseEvent, error)
}

type eventRepoImpl struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepoImpl{
		db: db,
	}
}

// Upsert inserts the event by its external session id, or overwrites the
// mutable columns of the existing row. The returned newlySucceeded flag is
// true only when this very call moved the row into PAYMENT_SUCCESS.
//
// A PAYMENT_SUCCESS row is terminal for its key: the transition signal comes
// from the status guard on the UPDATE itself, not from a separate read, so
// two near-simultaneous deliveries of the same success notification can
// never both report it. The same guard keeps a replayed cancellation from
// downgrading an already-credited success.
func (r *eventRepoImpl) Upsert(ctx context.Context, event *model.PurchaseEvent) (bool, error) {
	newlySucceeded := false

	guarded := event.Status == model.StatusPaymentSuccess ||
		event.Status == model.StatusCancelled

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// created_at is deliberately absent: the row keeps its first-seen time
		assignments := map[string]interface{}{
			"status":         event.Status,
			"details":        event.Details,
			"product_id":     event.ProductID,
			"seller_id":      event.SellerID,
			"points_awarded": event.PointsAwarded,
			"updated_at":     time.Now(),
		}

		update := tx.Model(&model.PurchaseEvent{}).
			Where("external_session_id = ?", event.ExternalSessionID)
		if guarded {
			update = update.Where("status != ?", model.StatusPaymentSuccess)
		}
		res := update.Updates(assignments)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			newlySucceeded = event.Status == model.StatusPaymentSuccess
			return nil
		}

		// No row matched: either first sight of this key, or the row is
		// already PAYMENT_SUCCESS. The insert decides which.
		err := tx.Create(event).Error
		if err == nil {
			newlySucceeded = event.Status == model.StatusPaymentSuccess
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		// Row exists in PAYMENT_SUCCESS. A duplicate success still
		// overwrites (latest details win); a cancellation must not downgrade.
		if event.Status != model.StatusPaymentSuccess {
			return nil
		}
		return tx.Model(&model.PurchaseEvent{}).
			Where("external_session_id = ?", event.ExternalSessionID).
			Updates(assignments).Error
	})

	return newlySucceeded, err
}

func (r *eventRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.PurchaseEvent, error) {
	var event model.PurchaseEvent
	err := r.db.WithContext(ctx).
		Where("external_session_id = ?", sessionID).
		First(&event).Error

	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *eventRepoImpl) ListRecent(ctx context.Context, limit int) ([]*model.PurchaseEvent, error) {
	var events []*model.PurchaseEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error

	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *eventRepoImpl) ListBySeller(ctx context.Context, sellerID int, month string) ([]*model.PurchaseEvent, error) {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)

	if month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, errors.New("month filter must be YYYY-MM")
		}
		query = query.Where("created_at >= ? AND created_at < ?", start, start.AddDate(0, 1, 0))
	}

	var events []*model.PurchaseEvent
	err := query.Order("created_at DESC").Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *eventRepoImpl) ListByCustomer(ctx context.Context, customerID string) ([]*model.PurchaseEvent, error) {
	var events []*model.PurchaseEvent
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&events).Error

	if err != nil {
		return nil, err
	}

	return events, nil
}
