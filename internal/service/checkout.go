package service

import (
	"context"
	"errors"
	"fmt"

	"stripe-points-service/internal/client"
	"stripe-points-service/internal/dto"
	"stripe-points-service/internal/model"
	"stripe-points-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUnknownProduct = errors.New("unknown product")

type CheckoutService interface {
	CreateSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	stripeClient   client.StripeClient
	serviceBaseUrl string
	productRepo    repository.ProductRepository
	eventRepo      repository.EventRepository
	log            *zap.Logger
}

func NewCheckoutService(
	stripeClient client.StripeClient,
	serviceBaseUrl string,
	productRepo repository.ProductRepository,
	eventRepo repository.EventRepository,
	log *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		stripeClient:   stripeClient,
		serviceBaseUrl: serviceBaseUrl,
		productRepo:    productRepo,
		eventRepo:      eventRepo,
		log:            log,
	}
}

// CreateSession opens a hosted checkout for one product and plants the
// metadata bag the webhook processor will later read the attempt context
// from. The session id the provider returns is the idempotency key of the
// eventual completion notification.
func (s *checkoutServiceImpl) CreateSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if req.CustomerID == "" || req.ProductID == "" {
		return nil, fmt.Errorf("customer_id and product_id are required")
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownProduct
	}
	if err != nil {
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	price := decimal.NewFromInt32(product.Price).Div(decimal.NewFromInt(100))

	resp, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CreateSessionRequest{
		ProductName: product.Name,
		Description: fmt.Sprintf("%s (%s %s)", product.Description, product.Currency, price.StringFixed(2)),
		UnitAmount:  product.Price,
		Currency:    product.Currency,
		CustomerID:  req.CustomerID,
		ProductID:   product.ID,
		SellerID:    req.SellerID,
		SuccessURL:  fmt.Sprintf("%s/checkout/success", s.serviceBaseUrl),
		CancelURL:   fmt.Sprintf("%s/checkout/cancelled", s.serviceBaseUrl),
	})
	if err != nil {
		return nil, fmt.Errorf("stripe api create session: %w", err)
	}

	// Best effort: the webhook creates the ledger row anyway if this write
	// is lost.
	productID := product.ID
	if _, err := s.eventRepo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: resp.SessionID,
		CustomerID:        req.CustomerID,
		ProductID:         &productID,
		SellerID:          req.SellerID,
		Status:            model.StatusInitiated,
	}); err != nil {
		s.log.Warn("record initiated event",
			zap.String("session", resp.SessionID),
			zap.Error(err),
		)
	}

	return &dto.CheckoutResponse{
		SessionID:   resp.SessionID,
		CheckoutURL: resp.CheckoutURL,
	}, nil
}
