// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the bot publishes. A single instance is
// shared by the orchestrator and the executor.
type Metrics struct {
	Registry *prometheus.Registry

	TicksTotal      prometheus.Counter
	TickErrors      prometheus.Counter
	TradesTotal     *prometheus.CounterVec
	TradesByOutcome *prometheus.CounterVec
	ArbEvaluations  prometheus.Counter
	ArbExecutions   prometheus.Counter
	ArbProfitBps    prometheus.Gauge
	Price           *prometheus.GaugeVec
	EMA             *prometheus.GaugeVec
	GasBalance      prometheus.Gauge
	TickDuration    prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gswapbot_ticks_total",
			Help: "Number of completed decision ticks.",
		}),
		TickErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "gswapbot_tick_errors_total",
			Help: "Number of ticks that ended with an error.",
		}),
		TradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gswapbot_trades_total",
			Help: "Trades attempted, labelled by direction.",
		}, []string{"direction"}),
		TradesByOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gswapbot_trade_outcomes_total",
			Help: "Trade results, labelled by confirmation method.",
		}, []string{"via"}),
		ArbEvaluations: factory.NewCounter(prometheus.CounterOpts{
			Name: "gswapbot_arb_evaluations_total",
			Help: "Triangular arbitrage chains evaluated.",
		}),
		ArbExecutions: factory.NewCounter(prometheus.CounterOpts{
			Name: "gswapbot_arb_executions_total",
			Help: "Triangular arbitrage chains executed.",
		}),
		ArbProfitBps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gswapbot_arb_profit_bps",
			Help: "Profit of the most recently evaluated arbitrage chain.",
		}),
		Price: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gswapbot_price",
			Help: "Last observed price per trading pair.",
		}, []string{"pair"}),
		EMA: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gswapbot_ema",
			Help: "Exponential moving average per trading pair.",
		}, []string{"pair"}),
		GasBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gswapbot_gas_balance",
			Help: "Current gas token balance.",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gswapbot_tick_duration_seconds",
			Help:    "Wall time spent per decision tick.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
