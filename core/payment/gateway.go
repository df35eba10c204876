package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const TopicPayment = "payment"

var ErrInvalidSignature = errors.New("invalid notification signature")

type (
	// Gateway is an online payment provider.
	Gateway interface {
		// CreatePreference registers a checkout and returns where the payer must be redirected.
		CreatePreference(ctx context.Context, pref Preference) (PreferenceResult, error)
		// GetPayment fetches a payment by its provider ID.
		GetPayment(ctx context.Context, providerPaymentID string) (ProviderPayment, error)
	}

	Preference struct {
		ExternalReference string // local payment ID
		Title             string
		Description       string
		Amount            int64 // cents
		Currency          string
		PayerEmail        string
		PayerName         string
	}

	PreferenceResult struct {
		ID          string
		CheckoutURL string
	}

	ProviderPayment struct {
		ID                string
		Status            string
		StatusDetail      string
		ExternalReference string
		Amount            int64 // cents
		Currency          string
		ApprovedAt        time.Time
	}

	// Notification is a webhook call from the payment provider.
	Notification struct {
		Topic     string // "type" (or legacy "topic")
		Action    string
		DataID    string // "data.id"
		RequestID string // "x-request-id" header
		Signature string // "x-signature" header
	}
)

// VerifySignature checks the "x-signature" header ("ts=<unix>,v1=<hex hmac-sha256>") of a notification.
// the signed manifest is "id:<data.id>;request-id:<x-request-id>;ts:<ts>;", parts missing from the request are left out.
func VerifySignature(n Notification, secret string) error {
	if secret == "" || n.Signature == "" {
		return ErrInvalidSignature
	}

	var ts, v1 string
	for _, part := range strings.Split(n.Signature, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "ts":
			ts = strings.TrimSpace(kv[1])
		case "v1":
			v1 = strings.TrimSpace(kv[1])
		}
	}
	if ts == "" || v1 == "" {
		return ErrInvalidSignature
	}
	sig, err := hex.DecodeString(v1)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signatureManifest(n.DataID, n.RequestID, ts)))
	if !hmac.Equal(mac.Sum(nil), sig) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the "x-signature" header value of a notification, as the provider computes it.
func Sign(n Notification, secret string, ts int64) string {
	tsStr := fmt.Sprintf("%d", ts)
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signatureManifest(n.DataID, n.RequestID, tsStr)))
	return fmt.Sprintf("ts=%s,v1=%s", tsStr, hex.EncodeToString(mac.Sum(nil)))
}

func signatureManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		// alphanumeric IDs are signed lower-cased
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}
