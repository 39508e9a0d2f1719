package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	// order lifecycle
	DeliveryOrdersPlaced prometheus.Counter
	RetailOrdersPlaced   prometheus.Counter
	StatusTransitions    prometheus.Counter
	TransitionsRejected  prometheus.Counter
	ProductEdits         prometheus.Counter
	SubscriptionsCreated prometheus.Counter
	RenewalsApplied      prometheus.Counter
	CheckoutLatencySec   prometheus.Histogram
	ChangelogAppended    prometheus.Counter

	// recovery
	ReplayApplied      prometheus.Counter
	ReplaySkipped      prometheus.Counter
	TTRSec             prometheus.Gauge
	Lag                prometheus.Gauge
	LastManifestAgeSec prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	deliveryPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_delivery_orders_placed_total"})
	retailPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_retail_orders_placed_total"})
	transitions := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_status_transitions_total"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_status_transitions_rejected_total"})
	edits := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_product_edits_total"})
	subsCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_subscriptions_created_total"})
	renewals := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_renewals_applied_total"})
	checkoutLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "beanstand_checkout_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	changelogAppended := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_changelog_appended_total"})

	replayApplied := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_replay_applied_total"})
	replaySkipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "beanstand_replay_skipped_total"})
	ttr := prometheus.NewGauge(prometheus.GaugeOpts{Name: "beanstand_recovery_ttr_seconds"})
	lag := prometheus.NewGauge(prometheus.GaugeOpts{Name: "beanstand_changelog_lag"})
	lastAge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "beanstand_last_manifest_age_seconds"})

	r.MustRegister(deliveryPlaced, retailPlaced, transitions, rejected, edits, subsCreated,
		renewals, checkoutLatency, changelogAppended, replayApplied, replaySkipped, ttr, lag, lastAge)
	return &Registry{
		reg:                  r,
		DeliveryOrdersPlaced: deliveryPlaced,
		RetailOrdersPlaced:   retailPlaced,
		StatusTransitions:    transitions,
		TransitionsRejected:  rejected,
		ProductEdits:         edits,
		SubscriptionsCreated: subsCreated,
		RenewalsApplied:      renewals,
		CheckoutLatencySec:   checkoutLatency,
		ChangelogAppended:    changelogAppended,
		ReplayApplied:        replayApplied,
		ReplaySkipped:        replaySkipped,
		TTRSec:               ttr,
		Lag:                  lag,
		LastManifestAgeSec:   lastAge,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
