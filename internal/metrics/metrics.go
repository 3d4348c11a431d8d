// Package metrics 目录服务的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 目录核心操作的计数器/直方图
type Metrics struct {
	RowsIngested  *prometheus.CounterVec
	RowsRejected  *prometheus.CounterVec
	Files         *prometheus.CounterVec
	Queries       prometheus.Counter
	IndexBuild    prometheus.Histogram
	Rooms         prometheus.Gauge
	UnmappedCodes prometheus.Gauge
}

// New 创建并注册指标；reg 为 nil 时只创建不注册
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RowsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "rows_ingested_total",
			Help:      "Rows merged into the dataset, by kind.",
		}, []string{"kind"}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "rows_rejected_total",
			Help:      "Rows dropped at ingestion, by reason.",
		}, []string{"reason"}),
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "files_total",
			Help:      "Imported files, by outcome.",
		}, []string{"status"}),
		Queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "queries_total",
			Help:      "Filtered-view evaluations.",
		}),
		IndexBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "directory",
			Name:      "index_build_seconds",
			Help:      "Search index rebuild duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "directory",
			Name:      "rooms",
			Help:      "Rooms in the dataset.",
		}),
		UnmappedCodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "directory",
			Name:      "unmapped_codes",
			Help:      "Distinct unrecognized abbreviation codes.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RowsIngested, m.RowsRejected, m.Files, m.Queries, m.IndexBuild, m.Rooms, m.UnmappedCodes)
	}
	return m
}

// ObserveIndexBuild 记录一次索引重建
func (m *Metrics) ObserveIndexBuild(start time.Time, rooms int) {
	if m == nil {
		return
	}
	m.IndexBuild.Observe(time.Since(start).Seconds())
	m.Rooms.Set(float64(rooms))
}
