package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classleague", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classleague", Name: "handler_errors_total", Help: "Handler errors",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "classleague", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})

	LedgerDeltas = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classleague", Name: "ledger_deltas_total", Help: "Applied point deltas by sign",
	}, []string{"sign"})
	BatchUsers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classleague", Name: "batch_users_total", Help: "Users processed by batch apply",
	}, []string{"result"})
	Purchases = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classleague", Name: "purchases_total", Help: "Completed purchases by category",
	}, []string{"category"})
	PurchaseAborts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classleague", Name: "purchase_aborts_total", Help: "Aborted purchases by reason",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, DBPing, LedgerDeltas, BatchUsers, Purchases, PurchaseAborts)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveDelta(amount int) {
	switch {
	case amount > 0:
		LedgerDeltas.WithLabelValues("plus").Inc()
	case amount < 0:
		LedgerDeltas.WithLabelValues("minus").Inc()
	default:
		LedgerDeltas.WithLabelValues("info").Inc()
	}
}
