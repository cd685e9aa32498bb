package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"stripe-points-service/internal/service"
	"stripe-points-service/internal/webhook"

	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// StripeWebhook hands the raw body to the processor. The status code steers
// provider redelivery: 2xx acknowledges, 4xx tells it the bytes will never
// verify, 5xx asks for a redelivery after a transient failure.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.webhookService.HandleNotification(ctx, c.Request().Header.Get("Stripe-Signature"), body)
	switch {
	case err == nil:
		return c.NoContent(http.StatusOK)
	case errors.Is(err, webhook.ErrSignatureInvalid), errors.Is(err, webhook.ErrPayloadMalformed):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook")
	case errors.Is(err, webhook.ErrSecretNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, "webhook secret not configured")
	default:
		return fmt.Errorf("handle webhook: %w", err)
	}
}
