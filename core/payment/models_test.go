package payment

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/dojang/core"
)

func TestCurrencyValidation(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	tests := []struct {
		name     string
		currency string
		want     string
		wantErr  bool
	}{
		{name: "default", currency: "", want: ""},
		{name: "upper", currency: "USD", want: "USD"},
		{name: "lower", currency: "usd", want: "USD"},
		{name: "padded", currency: " ars ", want: "ARS"},
		{name: "not a code", currency: "dollars", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np := NewPayment{StudentID: "s", Concept: ConceptOther, Amount: 100, Currency: tt.currency, Method: MethodCash}
			err := np.Validate(validate)
			nc := NewCheckout{StudentID: "s", Concept: ConceptOther, Amount: 100, Currency: tt.currency}
			cErr := nc.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Error(t, cErr)
				return
			}
			if assert.NoError(t, err) && assert.NoError(t, cErr) {
				assert.Equal(t, tt.want, np.Currency)
				assert.Equal(t, tt.want, nc.Currency)
			}
		})
	}
}
