// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package metrics exports the bucket layout of a range index and the
// lookup results as prometheus metrics.
package metrics

import (
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/gaissmai/rangeidx"
)

const (
	namespace = "rangeidx"
	subsystem = "index"
)

// Descriptors used by the Collector below.
var (
	recordsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, subsystem, "records"),
		"Number of ranges in the index.",
		[]string{"version"}, nil,
	)
	bucketsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, subsystem, "buckets"),
		"Number of size buckets in the index.",
		[]string{"version"}, nil,
	)
	bucketRecordsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, subsystem, "bucket_records"),
		"Number of ranges per size bucket.",
		[]string{
			"version",
			"size", // number of addresses in each range of the bucket, may exceed float64 precision
		}, nil,
	)
)

// Source is the read-only view of an index the Collector needs,
// satisfied by every [rangeidx.Index].
type Source interface {
	Len4() int
	Len6() int
	Stats(is4 bool) []rangeidx.BucketStats
}

// Collector implements [prometheus.Collector] for an index.
// The gauges are computed on every scrape, the index is immutable.
type Collector struct {
	src     Source
	lookups *prometheus.CounterVec
}

// NewCollector returns a collector for src.
func NewCollector(src Source) *Collector {
	return &Collector{
		src: src,
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Number of lookups by result.",
			},
			[]string{"result"},
		),
	}
}

// ObserveLookup counts a lookup as hit or miss.
func (c *Collector) ObserveLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.lookups.WithLabelValues(result).Inc()
}

// Describe sends the static descriptors, the lookup counters are
// created lazily and can't be described by collecting.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- recordsDesc
	ch <- bucketsDesc
	ch <- bucketRecordsDesc
	c.lookups.Describe(ch)
}

// Collect creates constant metrics from the index stats on the fly.
//
// Collect may be called concurrently, the Source must be safe for
// concurrent reads.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, version := range []struct {
		is4   bool
		label string
		n     int
	}{
		{true, "4", c.src.Len4()},
		{false, "6", c.src.Len6()},
	} {
		stats := c.src.Stats(version.is4)

		ch <- prometheus.MustNewConstMetric(recordsDesc, prometheus.GaugeValue, float64(version.n), version.label)
		ch <- prometheus.MustNewConstMetric(bucketsDesc, prometheus.GaugeValue, float64(len(stats)), version.label)

		for _, bs := range stats {
			ch <- prometheus.MustNewConstMetric(
				bucketRecordsDesc,
				prometheus.GaugeValue,
				float64(bs.Len),
				strconv.Itoa(bs.Version),
				bs.Size.String(),
			)
		}
	}

	c.lookups.Collect(ch)
}

// WriteText gathers the collectors in a private registry and writes
// them in the prometheus text exposition format.
func WriteText(w io.Writer, cs ...prometheus.Collector) error {
	reg := prometheus.NewPedanticRegistry()
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	mfs, err := reg.Gather()
	if err != nil {
		return err
	}

	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
