package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry with every metric the miner exposes.
type Collector struct {
	registry        *prometheus.Registry
	ticksTotal      *prometheus.CounterVec
	apiRequests     *prometheus.CounterVec
	breakerOpens    prometheus.Counter
	liveChannels    *prometheus.GaugeVec
	pointsClaimed   prometheus.Counter
	wagersSettled   *prometheus.CounterVec
	accountsDemoted prometheus.Counter
}

// NewCollector builds a Collector backed by its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		ticksTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "miner_ticks_total",
			Help: "Scheduler cycles executed, by kind (reconcile|claim|wager) and result (ok|skipped)",
		}, []string{"kind", "result"}),
		apiRequests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "miner_api_requests_total",
			Help: "Outbound API calls by breaker target and outcome",
		}, []string{"target", "outcome"}),
		breakerOpens: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "miner_breaker_opens_total",
			Help: "Times a per-target circuit breaker tripped open",
		}),
		liveChannels: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "miner_live_channels",
			Help: "Followed channels currently live, per account",
		}, []string{"account"}),
		pointsClaimed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "miner_points_claimed_total",
			Help: "Channel points claimed across all accounts",
		}),
		wagersSettled: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "miner_wagers_settled_total",
			Help: "Settled wagers by outcome (win|loss)",
		}, []string{"outcome"}),
		accountsDemoted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "miner_accounts_demoted_total",
			Help: "Accounts demoted to idle after irrecoverable auth failure",
		}),
	}
}

func (c *Collector) RecordTick(kind, result string) {
	c.ticksTotal.WithLabelValues(kind, result).Inc()
}

func (c *Collector) RecordAPIRequest(target, outcome string) {
	c.apiRequests.WithLabelValues(target, outcome).Inc()
}

func (c *Collector) RecordBreakerOpen() {
	c.breakerOpens.Inc()
}

func (c *Collector) SetLiveChannels(account string, n int) {
	c.liveChannels.WithLabelValues(account).Set(float64(n))
}

func (c *Collector) RecordPointsClaimed(points int64) {
	c.pointsClaimed.Add(float64(points))
}

func (c *Collector) RecordWager(outcome string) {
	c.wagersSettled.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordDemotion() {
	c.accountsDemoted.Inc()
}

// Handler returns the /metrics handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr in a background goroutine.
func (c *Collector) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		slog.Info("metrics server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "err", err)
		}
	}()

	return server
}
