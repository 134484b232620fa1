package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokens_issued_total",
			Help: "Total number of identity tokens issued",
		},
	)

	TokenValidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "token_validations_total",
			Help: "Total number of token validations",
		},
	)

	TokenValidationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_validations_failed_total",
			Help: "Total number of failed token validations by reason",
		},
		[]string{"reason"},
	)

	PolicyDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_denials_total",
			Help: "Total number of authorization denials by operation and reason",
		},
		[]string{"operation", "reason"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)
)
