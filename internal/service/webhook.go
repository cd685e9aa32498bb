package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"stripe-points-service/internal/model"
	"stripe-points-service/internal/repository"
	"stripe-points-service/internal/webhook"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provider notification types the processor acts on
const (
	eventCheckoutCompleted = "checkout.session.completed"
	eventCheckoutExpired   = "checkout.session.expired"
	eventPaymentFailed     = "payment_intent.payment_failed"
)

type WebhookService interface {
	HandleNotification(ctx context.Context, sigHeader string, body []byte) error
}

type webhookServiceImpl struct {
	verifier    *webhook.Verifier
	eventRepo   repository.EventRepository
	pointsRepo  repository.PointsRepository
	productRepo repository.ProductRepository
	log         *zap.Logger
}

func NewWebhookService(
	verifier *webhook.Verifier,
	eventRepo repository.EventRepository,
	pointsRepo repository.PointsRepository,
	productRepo repository.ProductRepository,
	log *zap.Logger,
) WebhookService {
	return &webhookServiceImpl{
		verifier:    verifier,
		eventRepo:   eventRepo,
		pointsRepo:  pointsRepo,
		productRepo: productRepo,
		log:         log,
	}
}

// HandleNotification verifies the raw notification and applies it to the
// ledger. A nil return acknowledges the notification (the provider stops
// redelivering); any error is mapped by the handler to a status that tells
// the provider whether redelivery makes sense.
func (s *webhookServiceImpl) HandleNotification(ctx context.Context, sigHeader string, body []byte) error {
	event, err := s.verifier.ParseEvent(body, sigHeader)
	if err != nil {
		return fmt.Errorf("verify webhook: %w", err)
	}

	switch event.Type {
	case eventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case eventCheckoutExpired:
		return s.handleCheckoutExpired(ctx, event)
	case eventPaymentFailed:
		return s.handlePaymentFailed(ctx, event)
	}

	s.log.Debug("ignoring unhandled notification type",
		zap.String("event", event.ID),
		zap.String("type", event.Type),
	)
	return nil
}

// handleCheckoutCompleted reads attempt context from the provider-signed
// metadata bag only, never from client-supplied fields. The balance is
// incremented exactly once per session: only when the upsert itself reports
// the first transition into PAYMENT_SUCCESS.
func (s *webhookServiceImpl) handleCheckoutCompleted(ctx context.Context, event *model.StripeEvent) error {
	obj := event.Data.Object
	customerID := obj.Metadata[model.MetadataCustomerID]
	productID := obj.Metadata[model.MetadataProductID]
	sellerID := parseSellerID(obj.Metadata[model.MetadataSellerID])

	if customerID == "" || productID == "" {
		s.log.Warn("checkout completed without required metadata",
			zap.String("event", event.ID),
			zap.String("session", obj.ID),
		)
		_, err := s.eventRepo.Upsert(ctx, &model.PurchaseEvent{
			ExternalSessionID: obj.ID,
			CustomerID:        customerID,
			SellerID:          sellerID,
			Status:            model.StatusMissingMetadata,
			Details:           eventDetails(event, map[string]interface{}{"error": "missing customerId or productId in metadata"}),
		})
		return err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("checkout completed for unknown product",
			zap.String("event", event.ID),
			zap.String("session", obj.ID),
			zap.String("product", productID),
		)
		_, err := s.eventRepo.Upsert(ctx, &model.PurchaseEvent{
			ExternalSessionID: obj.ID,
			CustomerID:        customerID,
			ProductID:         &productID,
			SellerID:          sellerID,
			Status:            model.StatusProductNotFound,
			Details:           eventDetails(event, map[string]interface{}{"error": "product not found"}),
		})
		return err
	}
	if err != nil {
		return fmt.Errorf("resolve product: %w", err)
	}

	newlySucceeded, err := s.eventRepo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: obj.ID,
		CustomerID:        customerID,
		ProductID:         &productID,
		SellerID:          sellerID,
		Status:            model.StatusPaymentSuccess,
		PointsAwarded:     product.Points,
		Details: eventDetails(event, map[string]interface{}{
			"amount_paid":    formatAmount(obj.AmountTotal),
			"currency":       obj.Currency,
			"payment_status": obj.PaymentStatus,
		}),
	})
	if err != nil {
		return fmt.Errorf("record purchase event: %w", err)
	}
	if !newlySucceeded {
		return nil
	}

	if _, err := s.pointsRepo.ApplyPoints(ctx, customerID, product.Points); err != nil {
		// The success event is already committed; a redelivery would find the
		// row in PAYMENT_SUCCESS and never increment. Acknowledge and leave a
		// reconciliation trail instead of failing the delivery.
		s.log.Error("balance increment failed after committed success event",
			zap.String("event", event.ID),
			zap.String("session", obj.ID),
			zap.String("customer", customerID),
			zap.Int("points", product.Points),
			zap.Error(err),
		)
	}

	return nil
}

func (s *webhookServiceImpl) handleCheckoutExpired(ctx context.Context, event *model.StripeEvent) error {
	obj := event.Data.Object

	purchase := &model.PurchaseEvent{
		ExternalSessionID: obj.ID,
		CustomerID:        obj.Metadata[model.MetadataCustomerID],
		SellerID:          parseSellerID(obj.Metadata[model.MetadataSellerID]),
		Status:            model.StatusCancelled,
		Details:           eventDetails(event, nil),
	}
	if productID := obj.Metadata[model.MetadataProductID]; productID != "" {
		purchase.ProductID = &productID
	}

	_, err := s.eventRepo.Upsert(ctx, purchase)
	return err
}

// handlePaymentFailed is keyed by the payment-intent id, a different
// identifier space than checkout sessions. Repeated failures for one
// attempt overwrite the same row; only the latest reason is kept.
func (s *webhookServiceImpl) handlePaymentFailed(ctx context.Context, event *model.StripeEvent) error {
	obj := event.Data.Object

	customerID := obj.ReceiptEmail
	if customerID == "" {
		customerID = obj.CustomerDetails.Email
	}
	if customerID == "" {
		customerID = obj.Customer
	}

	reason := obj.LastPaymentError.Message
	if reason == "" {
		reason = "unknown"
	}

	_, err := s.eventRepo.Upsert(ctx, &model.PurchaseEvent{
		ExternalSessionID: obj.ID,
		CustomerID:        customerID,
		Status:            model.StatusPaymentFailed,
		Details: eventDetails(event, map[string]interface{}{
			"reason":   reason,
			"amount":   formatAmount(obj.Amount),
			"currency": obj.Currency,
		}),
	})
	return err
}

func parseSellerID(raw string) int {
	sellerID, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return sellerID
}

func formatAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// eventDetails builds the append-only audit payload stored on the ledger
// row. Downstream logic never parses it.
func eventDetails(event *model.StripeEvent, extra map[string]interface{}) string {
	payload := map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	}
	for k, v := range extra {
		payload[k] = v
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
