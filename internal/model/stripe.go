package model

type CustomerDetails struct {
	Email string `json:"email"`
}

type LastPaymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StripeObject is the data.object of a webhook event. Checkout sessions and
// payment intents share the envelope, so this carries the union of the
// fields the processor reads from either.
type StripeObject struct {
	ID               string            `json:"id"`
	Customer         string            `json:"customer"`
	ReceiptEmail     string            `json:"receipt_email"`
	CustomerDetails  CustomerDetails   `json:"customer_details"`
	AmountTotal      int64             `json:"amount_total"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	PaymentStatus    string            `json:"payment_status"`
	PaymentIntent    string            `json:"payment_intent"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError LastPaymentError  `json:"last_payment_error"`
}

type StripeEventData struct {
	Object StripeObject `json:"object"`
}

type StripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    StripeEventData `json:"data"`
}

// metadata keys set by the checkout initiator at session-creation time;
// the webhook processor reads attempt context exclusively from these
const (
	MetadataCustomerID = "customerId"
	MetadataProductID  = "productId"
	MetadataSellerID   = "sellerId"
)
