package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DiscoverySearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "property_dapp",
		Name:      "discovery_searches_total",
		Help:      "Indexer searches for property creation transactions, by outcome.",
	}, []string{"outcome"})

	StateFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "property_dapp",
		Name:      "state_fetches_total",
		Help:      "Application state lookups, by result (found, absent, error).",
	}, []string{"result"})

	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "property_dapp",
		Name:      "actions_total",
		Help:      "Property actions submitted, by action and outcome.",
	}, []string{"action", "outcome"})

	Listings = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "property_dapp",
		Name:      "listings",
		Help:      "Listings in the reconciled in-memory collection.",
	})
)
