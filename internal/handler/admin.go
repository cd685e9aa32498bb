package handler

import (
	"net/http"
	"strconv"
	"time"

	"stripe-points-service/internal/service"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	ledgerService service.LedgerService
}

func NewAdminHandler(ledgerService service.LedgerService) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
	}
}

func (h *AdminHandler) GetEvents(c echo.Context) error {
	ctx := c.Request().Context()

	events, err := h.ledgerService.RecentEvents(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, events)
}

func (h *AdminHandler) GetSellerReport(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := strconv.Atoi(c.Param("sellerID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "seller id must be an integer")
	}

	month := c.QueryParam("month")
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be YYYY-MM")
		}
	}

	report, err := h.ledgerService.SellerReport(ctx, sellerID, month)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) GetCustomerReport(c echo.Context) error {
	ctx := c.Request().Context()

	customerID := c.Param("customerID")
	if customerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing customer id")
	}

	report, err := h.ledgerService.CustomerReport(ctx, customerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}
