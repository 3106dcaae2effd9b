package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trade lifecycle metrics
	positionsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prop_ledger_positions_opened_total",
			Help: "Total number of positions opened",
		},
		[]string{"instrument", "direction"},
	)

	tradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prop_ledger_trades_closed_total",
			Help: "Total number of trades closed by outcome",
		},
		[]string{"outcome"},
	)

	tradePnL = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prop_ledger_trade_pnl",
			Help:    "Distribution of realized trade pnl",
			Buckets: []float64{-5000, -2000, -1000, -500, -100, 0, 100, 500, 1000, 2000, 5000},
		},
		[]string{"outcome"},
	)

	// Risk metrics
	riskBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prop_ledger_risk_blocks_total",
			Help: "Total number of trades refused by a risk gate",
		},
		[]string{"reason"},
	)

	// Account metrics
	equity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prop_ledger_equity",
			Help: "Current account equity",
		},
		[]string{"account"},
	)

	dailyPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prop_ledger_daily_pnl",
			Help: "Realized pnl for the current trading day",
		},
		[]string{"account"},
	)

	openPositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prop_ledger_open_positions",
			Help: "Number of positions currently open",
		},
		[]string{"account"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prop_ledger_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(positionsOpened)
	prometheus.MustRegister(tradesClosed)
	prometheus.MustRegister(tradePnL)
	prometheus.MustRegister(riskBlocks)
	prometheus.MustRegister(equity)
	prometheus.MustRegister(dailyPnL)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler serves the Prometheus metrics endpoint
type MetricsHandler struct {
	next http.Handler
}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{next: promhttp.Handler()}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.next.ServeHTTP(w, r)
}

func RecordPositionOpened(instrument, direction string) {
	positionsOpened.WithLabelValues(instrument, direction).Inc()
}

func RecordTradeClosed(outcome string, pnl float64) {
	tradesClosed.WithLabelValues(outcome).Inc()
	tradePnL.WithLabelValues(outcome).Observe(pnl)
}

func RecordRiskBlock(reason string) {
	riskBlocks.WithLabelValues(reason).Inc()
}

// UpdateAccount publishes the account gauges after a state change
func UpdateAccount(account string, currentEquity, dayPnL float64, open int) {
	equity.WithLabelValues(account).Set(currentEquity)
	dailyPnL.WithLabelValues(account).Set(dayPnL)
	openPositions.WithLabelValues(account).Set(float64(open))
}

func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
