package service

import (
	"context"

	"stripe-points-service/internal/dto"
	"stripe-points-service/internal/model"
	"stripe-points-service/internal/repository"
)

const recentEventsLimit = 100

// LedgerService is the read side consumed by the admin dashboard: pure
// projections over the event store and the points balances.
type LedgerService interface {
	RecentEvents(ctx context.Context) ([]*model.PurchaseEvent, error)
	SellerReport(ctx context.Context, sellerID int, month string) (*dto.SellerReport, error)
	CustomerReport(ctx context.Context, customerID string) (*dto.CustomerReport, error)
}

type ledgerServiceImpl struct {
	eventRepo  repository.EventRepository
	pointsRepo repository.PointsRepository
}

func NewLedgerService(
	eventRepo repository.EventRepository,
	pointsRepo repository.PointsRepository,
) LedgerService {
	return &ledgerServiceImpl{
		eventRepo:  eventRepo,
		pointsRepo: pointsRepo,
	}
}

func (s *ledgerServiceImpl) RecentEvents(ctx context.Context) ([]*model.PurchaseEvent, error) {
	return s.eventRepo.ListRecent(ctx, recentEventsLimit)
}

func (s *ledgerServiceImpl) SellerReport(ctx context.Context, sellerID int, month string) (*dto.SellerReport, error) {
	events, err := s.eventRepo.ListBySeller(ctx, sellerID, month)
	if err != nil {
		return nil, err
	}

	report := &dto.SellerReport{
		SellerID: sellerID,
		Month:    month,
		Events:   events,
	}
	for _, event := range events {
		if event.Status == model.StatusPaymentSuccess {
			report.TotalSales++
			report.TotalPoints += event.PointsAwarded
		}
	}

	return report, nil
}

func (s *ledgerServiceImpl) CustomerReport(ctx context.Context, customerID string) (*dto.CustomerReport, error) {
	events, err := s.eventRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	balance, err := s.pointsRepo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return &dto.CustomerReport{
		CustomerID:  customerID,
		TotalPoints: balance.TotalPoints,
		Events:      events,
	}, nil
}
