package repository

import (
	"context"
	"errors"
	"time"

	"stripe-points-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointsRepository interface {
	ApplyPoints(ctx context.Context, customerID string, delta int) (newTotal int, err error)
	Get(ctx context.Context, customerID string) (*model.UserPoints, error)
}

type pointsRepoImpl struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepoImpl{
		db: db,
	}
}

// ApplyPoints creates the customer's balance row at delta, or atomically
// adds delta to the existing row. Concurrent calls for the same customer
// serialize on the row write, so no update is lost.
func (r *pointsRepoImpl) ApplyPoints(ctx context.Context, customerID string, delta int) (int, error) {
	var balance model.UserPoints

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_points": gorm.Expr("user_points.total_points + ?", delta),
				"updated_at":   time.Now(),
			}),
		}).Create(&model.UserPoints{
			CustomerID:  customerID,
			TotalPoints: delta,
		}).Error
		if err != nil {
			return err
		}

		return tx.Where("customer_id = ?", customerID).First(&balance).Error
	})

	return balance.TotalPoints, err
}

func (r *pointsRepoImpl) Get(ctx context.Context, customerID string) (*model.UserPoints, error) {
	var balance model.UserPoints
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&balance).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.UserPoints{CustomerID: customerID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &balance, nil
}
