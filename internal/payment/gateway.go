package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

var ErrGateway = errors.New("payment gateway error")

// Gateway is the boundary contract with the external payment provider. A
// checkout creates an intent for the order total; the provider later calls
// back with a signed confirmation.
type Gateway interface {
	CreateOrder(amountMinorUnits int64, currency, receipt string) (string, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

type razorpayGateway struct {
	client    *razorpay.Client
	keySecret string
}

// NewRazorpayGateway wraps the Razorpay SDK behind the Gateway contract.
func NewRazorpayGateway(keyID, keySecret string) Gateway {
	return &razorpayGateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
	}
}

// CreateOrder creates a gateway-side payment intent for the given amount in
// minor units. The receipt ties the intent back to our order id.
func (g *razorpayGateway) CreateOrder(amountMinorUnits int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountMinorUnits,
		"currency": currency,
		"receipt":  receipt,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("%w: response missing order id", ErrGateway)
	}

	return orderID, nil
}

// VerifySignature recomputes the HMAC-SHA256 of "orderID|paymentID" with the
// key secret and compares it to the supplied signature in constant time. A
// mismatch is a hard rejection.
func (g *razorpayGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
