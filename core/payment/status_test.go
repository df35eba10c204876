package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{from: StatusPending, to: StatusApproved, want: true},
		{from: StatusPending, to: StatusInProcess, want: true},
		{from: StatusInProcess, to: StatusPending, want: true},
		{from: StatusRejected, to: StatusApproved, want: true},
		{from: StatusInProcess, to: StatusRejected, want: true},
		{from: StatusApproved, to: StatusRefunded, want: true},
		{from: StatusApproved, to: StatusPending},
		{from: StatusApproved, to: StatusRejected},
		{from: StatusCancelled, to: StatusPending},
		{from: StatusCancelled, to: StatusApproved},
		{from: StatusRefunded, to: StatusPending},
		{from: StatusRefunded, to: StatusApproved},
		{from: StatusPending, to: StatusRefunded},
		{from: "lol", to: StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     string
		wantOk   bool
	}{
		{provider: "approved", want: StatusApproved, wantOk: true},
		{provider: "authorized", want: StatusPending, wantOk: true},
		{provider: "in_mediation", want: StatusInProcess, wantOk: true},
		{provider: "charged_back", want: StatusRefunded, wantOk: true},
		{provider: "lol"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			got, ok := MapProviderStatus(tt.provider)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
