package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/services/payment/mercadopago"
)

// FakeGateway is an in-memory payment.Gateway.
type FakeGateway struct {
	mu          sync.Mutex
	Preferences []payment.Preference
	payments    map[string]payment.ProviderPayment
	Err         error // returned by every call when set
}

var _ payment.Gateway = (*FakeGateway)(nil) // interface compliance check

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{payments: make(map[string]payment.ProviderPayment)}
}

func (gw *FakeGateway) CreatePreference(_ context.Context, pref payment.Preference) (payment.PreferenceResult, error) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.Err != nil {
		return payment.PreferenceResult{}, gw.Err
	}
	gw.Preferences = append(gw.Preferences, pref)
	id := fmt.Sprintf("pref-%d", len(gw.Preferences))
	return payment.PreferenceResult{ID: id, CheckoutURL: "https://mp.test/checkout/" + id}, nil
}

func (gw *FakeGateway) GetPayment(_ context.Context, providerPaymentID string) (payment.ProviderPayment, error) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.Err != nil {
		return payment.ProviderPayment{}, gw.Err
	}
	pp, ok := gw.payments[providerPaymentID]
	if !ok {
		return payment.ProviderPayment{}, mercadopago.ErrNotFound
	}
	return pp, nil
}

// SetPayment registers (or replaces) a provider payment.
func (gw *FakeGateway) SetPayment(pp payment.ProviderPayment) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.payments[pp.ID] = pp
}
