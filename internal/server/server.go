package server

import (
	"stripe-points-service/internal/handler"
	appmiddleware "stripe-points-service/internal/middleware"
	"stripe-points-service/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	adminHandler    *handler.AdminHandler
	adminAPIKey     string
}

func NewServer(
	checkoutService service.CheckoutService,
	webhookService service.WebhookService,
	ledgerService service.LedgerService,
	adminAPIKey string,
	log *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		webhookHandler:  handler.NewWebhookHandler(webhookService),
		adminHandler:    handler.NewAdminHandler(ledgerService),
		adminAPIKey:     adminAPIKey,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.POST("/checkout", s.checkoutHandler.CreateCheckout)

	// -------- stripe webhooks / callbacks --------
	stripe := api.Group("/stripe")
	stripe.POST("/webhook", s.webhookHandler.StripeWebhook)

	s.echo.GET("/checkout/success", s.checkoutHandler.HandleSuccess)
	s.echo.GET("/checkout/cancelled", s.checkoutHandler.HandleCancelled)

	// -------- admin read projections --------
	admin := api.Group("/admin", appmiddleware.APIKey(s.adminAPIKey))
	admin.GET("/events", s.adminHandler.GetEvents)
	admin.GET("/sellers/:sellerID/report", s.adminHandler.GetSellerReport)
	admin.GET("/customers/:customerID", s.adminHandler.GetCustomerReport)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
