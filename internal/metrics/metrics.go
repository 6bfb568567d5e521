package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "orders_submitted_total", Help: "Orders accepted by the engine"}, []string{"symbol", "side", "type"})
	OrdersRejectedTotal  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "orders_rejected_total", Help: "Orders rejected before mutating the book"}, []string{"reason"})
	OrdersCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_cancelled_total", Help: "Orders removed by explicit cancel"})
	OrdersReplacedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_replaced_total", Help: "Cancel/replace commands applied"})
	FillsTotal           = prometheus.NewCounter(prometheus.CounterOpts{Name: "fills_total", Help: "Matches produced"})
	FilledQtyTotal       = prometheus.NewCounter(prometheus.CounterOpts{Name: "filled_qty_total", Help: "Total matched quantity"})
	DepthDeltasTotal     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "depth_deltas_total", Help: "Depth deltas by action"}, []string{"action"})
	DepthBatchesTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "depth_batches_total", Help: "Delta batches published"})
	SubmitLatency        = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "submit_latency_seconds", Help: "Order submit latency", Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12)})
	WSClients            = prometheus.NewGauge(prometheus.GaugeOpts{Name: "ws_clients", Help: "Connected depth feed clients"})
	WSDroppedTotal       = prometheus.NewCounter(prometheus.CounterOpts{Name: "ws_dropped_total", Help: "Feed messages dropped on slow clients"})
)

// Init registers all collectors on a fresh registry along with the standard
// Go and process collectors. A registration failure here is a programming
// mistake, so it panics.
func Init() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		OrdersSubmittedTotal, OrdersRejectedTotal, OrdersCancelledTotal, OrdersReplacedTotal,
		FillsTotal, FilledQtyTotal,
		DepthDeltasTotal, DepthBatchesTotal,
		SubmitLatency, WSClients, WSDroppedTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes the registry for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
