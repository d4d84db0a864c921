// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wsapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chipsim"

type metrics struct {
	sessions prometheus.Gauge
	builds   *prometheus.CounterVec
	inputs   prometheus.Counter
	nands    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "sessions",
			Help:      "Current number of open sessions.",
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "builds_total",
			Help:      "Total number of circuit builds.",
		}, []string{"result"}),
		inputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "inputs_total",
			Help:      "Total number of input changes.",
		}),
		nands: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "circuit_nands",
			Help:      "NAND gate count of built circuits.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
		}),
	}
	reg.MustRegister(m.sessions, m.builds, m.inputs, m.nands)
	return m
}
