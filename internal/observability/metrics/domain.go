package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccountsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_registered_total",
			Help: "Total number of registered accounts",
		},
	)

	BusinessFlagToggles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "account_business_toggles_total",
			Help: "Total number of business flag toggles",
		},
	)

	LoginStampsTrimmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "login_stamps_trimmed_total",
			Help: "Total number of login timestamps removed by the retention job",
		},
	)

	CardsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cards_created_total",
			Help: "Total number of created cards",
		},
	)

	CardLikeToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_like_toggles_total",
			Help: "Total number of like toggles by resulting state",
		},
		[]string{"state"},
	)

	CardCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_cache_lookups_total",
			Help: "Total number of card cache lookups by result",
		},
		[]string{"result"},
	)
)
