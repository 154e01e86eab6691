/*
 * Copyright 2026 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package collector

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics describes one inventory run in the node exporter textfile format
type Metrics struct {
	Registry *prometheus.Registry

	requests   *prometheus.CounterVec
	entries    *prometheus.GaugeVec
	duration   *prometheus.GaugeVec
	lastRun    prometheus.Gauge
	runSeconds prometheus.Gauge
}

func newServerMetric(metricName string, docString string, constLabels prometheus.Labels, labelNames []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        metricName,
			Help:        docString,
			ConstLabels: constLabels,
		},
		labelNames,
	)
}

// NewMetrics registers the run metrics for target on a fresh registry
func NewMetrics(target string) *Metrics {
	constLabels := prometheus.Labels{"target": target}
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fishyinventory_redfish_requests_total",
			Help:        "Redfish requests sent during the run by HTTP status code",
			ConstLabels: constLabels,
		}, []string{"code"}),
		entries:  newServerMetric("fishyinventory_category_entries", "Number of entries collected per inventory category", constLabels, []string{"category"}),
		duration: newServerMetric("fishyinventory_category_duration_seconds", "Time spent collecting an inventory category", constLabels, []string{"category"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fishyinventory_last_run_timestamp_seconds",
			Help:        "Unix time the last inventory run finished",
			ConstLabels: constLabels,
		}),
		runSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fishyinventory_last_run_duration_seconds",
			Help:        "Duration of the last inventory run",
			ConstLabels: constLabels,
		}),
	}
	m.Registry.MustRegister(m.requests, m.entries, m.duration, m.lastRun, m.runSeconds)
	return m
}

func (m *Metrics) ObserveResponse(code int) {
	m.requests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) ObserveCategory(category string, entries int, took time.Duration) {
	m.entries.WithLabelValues(category).Set(float64(entries))
	m.duration.WithLabelValues(category).Set(took.Seconds())
}

// Finish records a completed run. Failed runs write no textfile, so a stale
// fishyinventory_last_run_timestamp_seconds is what flags them.
func (m *Metrics) Finish(took time.Duration) {
	m.runSeconds.Set(took.Seconds())
	m.lastRun.Set(float64(time.Now().Unix()))
}

// WriteTextfile writes the registry to path for the node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
