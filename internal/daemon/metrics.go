package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterMetrics registers one GaugeFunc per field of every hosted
// container's Stats() — Len, Cap, BumpIndex, FreeListLen — against reg, and
// returns an http.Handler serving them in the Prometheus exposition format.
func (d *Daemon) RegisterMetrics(reg *prometheus.Registry) http.Handler {
	for _, kind := range allKinds {
		kind := kind
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: "containerd", Subsystem: string(kind), Name: "len"},
			func() float64 { return float64(d.Stats(kind).Len) },
		))
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: "containerd", Subsystem: string(kind), Name: "capacity"},
			func() float64 { return float64(d.Stats(kind).Capacity) },
		))
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: "containerd", Subsystem: string(kind), Name: "bump_index"},
			func() float64 { return float64(d.Stats(kind).BumpIndex) },
		))
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: "containerd", Subsystem: string(kind), Name: "free_list_len"},
			func() float64 { return float64(d.Stats(kind).FreeListLen) },
		))
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
