package handler

import (
	"errors"
	"net/http"

	"stripe-points-service/internal/dto"
	"stripe-points-service/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.checkoutService.CreateSession(ctx, &req)
	if errors.Is(err, service.ErrUnknownProduct) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CheckoutHandler) HandleSuccess(c echo.Context) error {
	// The ledger is updated by the webhook, never by this redirect.
	return c.String(http.StatusOK, "Payment approved. Your points will be credited shortly.")
}

func (h *CheckoutHandler) HandleCancelled(c echo.Context) error {
	return c.String(http.StatusOK, "Checkout cancelled.")
}
