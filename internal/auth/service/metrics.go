package service

import (
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	challengesIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncree_auth_challenges_issued_total",
			Help: "Total verification challenges issued",
		},
		[]string{"purpose"},
	)

	challengeVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncree_auth_challenge_verifications_total",
			Help: "Total challenge verifications by outcome",
		},
		[]string{"purpose", "outcome"},
	)

	codeDeliveriesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncree_auth_code_deliveries_failed_total",
			Help: "Total code deliveries that failed",
		},
		[]string{"purpose"},
	)

	codeDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oncree_auth_code_delivery_duration_seconds",
			Help:    "Code delivery duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.3, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"purpose", "status"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncree_auth_logins_total",
			Help: "Total login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func recordDelivery(purpose domain.Purpose, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
		codeDeliveriesFailedTotal.WithLabelValues(string(purpose)).Inc()
	}
	codeDeliveryDuration.WithLabelValues(string(purpose), status).Observe(time.Since(start).Seconds())
}

// verifyOutcome is the metrics label for a verification result.
func verifyOutcome(err error) string {
	switch err {
	case nil:
		return "success"
	case ErrChallengeNotFound:
		return "not_found"
	case ErrChallengeExpired:
		return "expired"
	case ErrCodeMismatch:
		return "mismatch"
	case ErrLockedOut:
		return "locked_out"
	case ErrAlreadyConsumed:
		return "already_consumed"
	case ErrSuperseded:
		return "superseded"
	default:
		return "error"
	}
}
