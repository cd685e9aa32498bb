package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stripe-points-service/internal/model"
)

var (
	// ErrSignatureInvalid covers a missing/garbled header, a signature
	// mismatch and a timestamp outside the tolerance window. Callers must
	// answer 4xx so the provider does not redeliver bytes that will never
	// verify.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrSecretNotConfigured means the deployment has no webhook secret.
	// Notifications must never be processed unverified.
	ErrSecretNotConfigured = errors.New("webhook secret not configured")

	// ErrPayloadMalformed means the signature verified but the body is not
	// a decodable event.
	ErrPayloadMalformed = errors.New("webhook payload malformed")
)

// Verifier authenticates provider notifications. Verification runs over the
// raw request bytes; re-serializing parsed JSON before checking would break
// the signature and is never done here.
type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, toleranceSeconds int) *Verifier {
	return &Verifier{
		secret:    strings.TrimSpace(secret),
		tolerance: time.Duration(toleranceSeconds) * time.Second,
		now:       time.Now,
	}
}

// ParseEvent checks the signature header against the raw body and, only on
// success, decodes the body into a typed event.
func (v *Verifier) ParseEvent(body []byte, sigHeader string) (*model.StripeEvent, error) {
	if err := v.verify(body, sigHeader); err != nil {
		return nil, err
	}

	var event model.StripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
	}

	return &event, nil
}

// verify checks a "t=<unix>,v1=<hex>" header: HMAC-SHA256 over
// "<t>.<body>" with the shared secret, constant-time compare, and a bound
// on the timestamp age.
func (v *Verifier) verify(body []byte, sigHeader string) error {
	if v.secret == "" {
		return ErrSecretNotConfigured
	}
	if strings.TrimSpace(sigHeader) == "" {
		return fmt.Errorf("%w: missing signature header", ErrSignatureInvalid)
	}

	timestamp, signatures := parseSignatureHeader(sigHeader)
	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("%w: unparsable signature header", ErrSignatureInvalid)
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age < 0 {
		age = -age
	}
	if age > v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return fmt.Errorf("%w: signature mismatch", ErrSignatureInvalid)
}

func parseSignatureHeader(header string) (timestamp int64, signatures []string) {
	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "t":
			ts, err := strconv.ParseInt(parts[1], 10, 64)
			if err == nil {
				timestamp = ts
			}
		case "v1":
			signatures = append(signatures, strings.ToLower(parts[1]))
		}
	}
	return timestamp, signatures
}
