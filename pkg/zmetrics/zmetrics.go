// Package zmetrics exposes the scheduler's observability surface (spec
// §6 Observability) as Prometheus metrics: per-priority queued/dispatched/
// completed/merged counts and the management gate's queue depths and
// hold-latency distributions. The dependency on prometheus/client_golang
// is introduced by the example pack's pkg/util/metric (graphite_exporter.go);
// Collector follows the library's own pull-based Collector pattern rather
// than push-updating gauges, since the scheduler's counters already live
// in pkg/bucket and pkg/gate and are cheap to read on every scrape.
package zmetrics

import "github.com/prometheus/client_golang/prometheus"

// BucketStat is a point-in-time count for one priority bucket, decoupled
// from pkg/bucket.Bucket so this package has no dependency on the
// scheduler's internal types.
type BucketStat struct {
	Priority   string
	Queued     int
	Inserted   uint64
	Merged     uint64
	Dispatched uint64
	Completed  uint64
}

// GateStat is a point-in-time view of the management gate.
type GateStat struct {
	ResetQueued, FinishQueued     int
	ResetHoldMean, FinishHoldMean float64
	ResetHoldP99, FinishHoldP99   int64
}

var (
	queuedDesc = prometheus.NewDesc(
		"zinc_bucket_queued", "Requests currently queued in a priority bucket.",
		[]string{"priority"}, nil)
	insertedDesc = prometheus.NewDesc(
		"zinc_bucket_inserted_total", "Requests ever inserted into a priority bucket.",
		[]string{"priority"}, nil)
	mergedDesc = prometheus.NewDesc(
		"zinc_bucket_merged_total", "Requests absorbed by a merge in a priority bucket.",
		[]string{"priority"}, nil)
	dispatchedDesc = prometheus.NewDesc(
		"zinc_bucket_dispatched_total", "Requests dispatched from a priority bucket.",
		[]string{"priority"}, nil)
	completedDesc = prometheus.NewDesc(
		"zinc_bucket_completed_total", "Requests completed from a priority bucket.",
		[]string{"priority"}, nil)
	gateQueuedDesc = prometheus.NewDesc(
		"zinc_gate_queued", "Management requests currently held by a gate stream.",
		[]string{"stream"}, nil)
	gateHoldMeanDesc = prometheus.NewDesc(
		"zinc_gate_hold_count_mean", "Mean hold-count of a gate stream's admitted requests.",
		[]string{"stream"}, nil)
	gateHoldP99Desc = prometheus.NewDesc(
		"zinc_gate_hold_count_p99", "P99 hold-count of a gate stream's admitted requests.",
		[]string{"stream"}, nil)
)

// Collector is a prometheus.Collector over the scheduler's live state,
// read fresh on every scrape via the two supplied callbacks.
type Collector struct {
	buckets func() []BucketStat
	gate    func() GateStat
}

// NewCollector constructs a Collector. buckets and gate are called once
// per Collect (i.e. once per Prometheus scrape).
func NewCollector(buckets func() []BucketStat, gate func() GateStat) *Collector {
	return &Collector{buckets: buckets, gate: gate}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queuedDesc
	ch <- insertedDesc
	ch <- mergedDesc
	ch <- dispatchedDesc
	ch <- completedDesc
	ch <- gateQueuedDesc
	ch <- gateHoldMeanDesc
	ch <- gateHoldP99Desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, b := range c.buckets() {
		ch <- prometheus.MustNewConstMetric(queuedDesc, prometheus.GaugeValue, float64(b.Queued), b.Priority)
		ch <- prometheus.MustNewConstMetric(insertedDesc, prometheus.CounterValue, float64(b.Inserted), b.Priority)
		ch <- prometheus.MustNewConstMetric(mergedDesc, prometheus.CounterValue, float64(b.Merged), b.Priority)
		ch <- prometheus.MustNewConstMetric(dispatchedDesc, prometheus.CounterValue, float64(b.Dispatched), b.Priority)
		ch <- prometheus.MustNewConstMetric(completedDesc, prometheus.CounterValue, float64(b.Completed), b.Priority)
	}

	g := c.gate()
	ch <- prometheus.MustNewConstMetric(gateQueuedDesc, prometheus.GaugeValue, float64(g.ResetQueued), "reset")
	ch <- prometheus.MustNewConstMetric(gateQueuedDesc, prometheus.GaugeValue, float64(g.FinishQueued), "finish")
	ch <- prometheus.MustNewConstMetric(gateHoldMeanDesc, prometheus.GaugeValue, g.ResetHoldMean, "reset")
	ch <- prometheus.MustNewConstMetric(gateHoldMeanDesc, prometheus.GaugeValue, g.FinishHoldMean, "finish")
	ch <- prometheus.MustNewConstMetric(gateHoldP99Desc, prometheus.GaugeValue, float64(g.ResetHoldP99), "reset")
	ch <- prometheus.MustNewConstMetric(gateHoldP99Desc, prometheus.GaugeValue, float64(g.FinishHoldP99), "finish")
}
