// Package metrics holds the Prometheus collectors of the auth service. They
// register with the default registry, which /metrics serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

var (
	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daybook",
		Subsystem: "auth",
		Name:      "login_total",
		Help:      "Password logins by outcome.",
	}, []string{"outcome"})

	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daybook",
		Subsystem: "auth",
		Name:      "refresh_total",
		Help:      "Refresh token rotations by outcome.",
	}, []string{"outcome"})

	// RefreshReuseTotal counts refresh tokens presented after their session
	// was already rotated or revoked.
	RefreshReuseTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "daybook",
		Subsystem: "auth",
		Name:      "refresh_reuse_total",
		Help:      "Refresh attempts with a revoked or superseded session.",
	})

	LogoutRevokeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "daybook",
		Subsystem: "auth",
		Name:      "logout_revoke_failures_total",
		Help:      "Logouts whose session revoke failed and was skipped.",
	})

	GuardTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daybook",
		Subsystem: "auth",
		Name:      "guard_decisions_total",
		Help:      "Authorization guard decisions by outcome.",
	}, []string{"outcome"})

	ResetRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "daybook",
		Subsystem: "auth",
		Name:      "reset_requests_total",
		Help:      "Password reset requests, including unknown emails.",
	})

	HousekeepingDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daybook",
		Subsystem: "auth",
		Name:      "housekeeping_deleted_total",
		Help:      "Rows removed by housekeeping.",
	}, []string{"kind"})
)
