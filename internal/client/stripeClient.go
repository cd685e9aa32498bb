package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"stripe-points-service/internal/config"
	"stripe-points-service/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error)
}

// CreateSessionRequest carries everything the provider needs for a hosted
// checkout page. The metadata bag (customer, product, seller) is echoed back
// signed inside the completion notification and is the only channel of
// attempt context the webhook processor trusts.
type CreateSessionRequest struct {
	ProductName string
	Description string
	UnitAmount  int32 // cents
	Currency    string
	CustomerID  string
	ProductID   string
	SellerID    int
	SuccessURL  string
	CancelURL   string
}

type CreateSessionResponse struct {
	SessionID   string
	CheckoutURL string
}

type stripeSessionResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeClientImpl struct {
	httpClient *resty.Client
	secretKey  string
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	httpClient := resty.New().
		SetBaseURL(stripeCfg.BaseApiURL).
		SetTimeout(30 * time.Second)

	return &stripeClientImpl{
		httpClient: httpClient,
		secretKey:  stripeCfg.SecretKey,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	form := map[string]string{
		"mode":        "payment",
		"success_url": req.SuccessURL,
		"cancel_url":  req.CancelURL,

		"line_items[0][quantity]":                              "1",
		"line_items[0][price_data][currency]":                  req.Currency,
		"line_items[0][price_data][unit_amount]":               strconv.FormatInt(int64(req.UnitAmount), 10),
		"line_items[0][price_data][product_data][name]":        req.ProductName,
		"line_items[0][price_data][product_data][description]": req.Description,

		"metadata[" + model.MetadataCustomerID + "]": req.CustomerID,
		"metadata[" + model.MetadataProductID + "]":  req.ProductID,
		"metadata[" + model.MetadataSellerID + "]":   strconv.Itoa(req.SellerID),
	}

	var result stripeSessionResult
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.secretKey).
		// provider-side dedup for our own outbound retries
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetFormData(form).
		SetResult(&result).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("stripe error %d: %s", resp.StatusCode(), resp.String())
	}
	if result.ID == "" {
		return nil, fmt.Errorf("stripe response missing session id")
	}

	return &CreateSessionResponse{
		SessionID:   result.ID,
		CheckoutURL: result.URL,
	}, nil
}
