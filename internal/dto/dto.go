package dto

import "stripe-points-service/internal/model"

type CheckoutRequest struct {
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`
	SellerID   int    `json:"seller_id"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type SellerReport struct {
	SellerID    int                    `json:"seller_id"`
	Month       string                 `json:"month,omitempty"`
	TotalSales  int                    `json:"total_sales"`
	TotalPoints int                    `json:"total_points"`
	Events      []*model.PurchaseEvent `json:"events"`
}

type CustomerReport struct {
	CustomerID  string                 `json:"customer_id"`
	TotalPoints int                    `json:"total_points"`
	Events      []*model.PurchaseEvent `json:"events"`
}
