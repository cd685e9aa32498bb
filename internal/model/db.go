package model

import "time"

type EventStatus string

const (
	StatusInitiated       EventStatus = "INITIATED"
	StatusPaymentSuccess  EventStatus = "PAYMENT_SUCCESS"
	StatusPaymentFailed   EventStatus = "PAYMENT_FAILED"
	StatusCancelled       EventStatus = "CANCELLED"
	StatusMissingMetadata EventStatus = "ERROR_MISSING_METADATA"
	StatusProductNotFound EventStatus = "ERROR_PRODUCT_NOT_FOUND"
)

type Product struct {
	ID          string `gorm:"primaryKey;size:64;not null"` // product sku
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"size:255"`
	Price       int32  `gorm:"not null"` // cents
	Currency    string `gorm:"size:8;not null"`
	Points      int    `gorm:"not null"`
}

// PurchaseEvent is the ledger: one row per provider idempotency key.
// Successful checkouts are keyed by the checkout-session id, failed payments
// by the payment-intent id; both live in ExternalSessionID and never collide.
// Later notifications for the same key overwrite the mutable columns, so a
// row always holds the latest known outcome for that attempt.
type PurchaseEvent struct {
	ID                uint        `gorm:"primaryKey"`
	ExternalSessionID string      `gorm:"size:128;uniqueIndex;not null"`
	CustomerID        string      `gorm:"size:128;index"`
	ProductID         *string     `gorm:"size:64;index"` // unknown for some failure notifications
	SellerID          int         `gorm:"index;not null;default:0"`
	Status            EventStatus `gorm:"size:32;index;not null"`
	PointsAwarded     int         `gorm:"not null"`
	Details           string      `gorm:"type:text"` // raw JSON audit payload, never parsed downstream
	CreatedAt         time.Time   // fixed at first insert
	UpdatedAt         time.Time
}

type UserPoints struct {
	CustomerID  string `gorm:"primaryKey;size:128;not null"`
	TotalPoints int    `gorm:"not null"`
	UpdatedAt   time.Time
}
