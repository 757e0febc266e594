package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	gw := NewRazorpayGateway("key_id", "key_secret")

	orderID := "order_abc123"
	paymentID := "pay_def456"
	valid := sign("key_secret", orderID, paymentID)

	if !gw.VerifySignature(orderID, paymentID, valid) {
		t.Fatal("valid signature rejected")
	}

	if gw.VerifySignature(orderID, paymentID, "deadbeef") {
		t.Error("garbage signature accepted")
	}
	if gw.VerifySignature(orderID, "pay_other", valid) {
		t.Error("signature accepted for a different payment id")
	}
	if gw.VerifySignature("order_other", paymentID, valid) {
		t.Error("signature accepted for a different order id")
	}
	if gw.VerifySignature(orderID, paymentID, "") {
		t.Error("empty signature accepted")
	}

	wrongKey := sign("other_secret", orderID, paymentID)
	if gw.VerifySignature(orderID, paymentID, wrongKey) {
		t.Error("signature from a different key secret accepted")
	}
}

func TestProperty_SignatureRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("signatures computed with the key secret always verify", prop.ForAll(
		func(secret string, orderID string, paymentID string) bool {
			gw := NewRazorpayGateway("key_id", secret)
			return gw.VerifySignature(orderID, paymentID, sign(secret, orderID, paymentID))
		},
		gen.RegexMatch(`[A-Za-z0-9]{16,32}`),
		gen.RegexMatch(`order_[A-Za-z0-9]{8,14}`),
		gen.RegexMatch(`pay_[A-Za-z0-9]{8,14}`),
	))

	properties.Property("tampering with any character breaks verification", prop.ForAll(
		func(secret string, orderID string, paymentID string) bool {
			gw := NewRazorpayGateway("key_id", secret)
			sig := sign(secret, orderID, paymentID)
			tampered := "0" + sig[1:]
			if tampered == sig {
				tampered = "1" + sig[1:]
			}
			return !gw.VerifySignature(orderID, paymentID, tampered)
		},
		gen.RegexMatch(`[A-Za-z0-9]{16,32}`),
		gen.RegexMatch(`order_[A-Za-z0-9]{8,14}`),
		gen.RegexMatch(`pay_[A-Za-z0-9]{8,14}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
