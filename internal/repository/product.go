package repository

import (
	"context"

	"stripe-points-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "points_20", Name: "Starter Pack", Description: "20 points", Price: 500, Currency: "USD", Points: 20},
		{ID: "points_50", Name: "Value Pack", Description: "50 points", Price: 1000, Currency: "USD", Points: 50},
		{ID: "points_120", Name: "Pro Pack", Description: "120 points", Price: 2000, Currency: "USD", Points: 120},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}
