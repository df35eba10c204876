package payment

// transitions lists the statuses a payment may move to from each status.
// refunded and cancelled are terminal.
var transitions = map[string][]string{
	StatusPending:   {StatusInProcess, StatusApproved, StatusRejected, StatusCancelled},
	StatusInProcess: {StatusPending, StatusApproved, StatusRejected, StatusCancelled},
	StatusRejected:  {StatusPending, StatusInProcess, StatusApproved},
	StatusApproved:  {StatusRefunded},
	StatusCancelled: nil,
	StatusRefunded:  nil,
}

// CanTransition reports whether a payment in status `from` may move to status `to`.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// providerStatuses maps MercadoPago payment statuses to local ones.
var providerStatuses = map[string]string{
	"pending":      StatusPending,
	"authorized":   StatusPending,
	"in_process":   StatusInProcess,
	"in_mediation": StatusInProcess,
	"approved":     StatusApproved,
	"rejected":     StatusRejected,
	"cancelled":    StatusCancelled,
	"refunded":     StatusRefunded,
	"charged_back": StatusRefunded,
}

// MapProviderStatus returns the local status of a provider status, false when unknown.
func MapProviderStatus(providerStatus string) (string, bool) {
	s, ok := providerStatuses[providerStatus]
	return s, ok
}
