package observability

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

// MetricType represents the type of metric
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric is a single named series. For histograms Value holds the last
// observation and Count/Sum/Min/Max summarize all of them.
type Metric struct {
	Timestamp time.Time         `json:"timestamp"`
	Labels    map[string]string `json:"labels,omitempty"`
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Unit      string            `json:"unit,omitempty"`
	Value     float64           `json:"value"`
	Count     uint64            `json:"count,omitempty"`
	Sum       float64           `json:"sum,omitempty"`
	Min       float64           `json:"min,omitempty"`
	Max       float64           `json:"max,omitempty"`
}

// MetricsCollector collects and manages application metrics
type MetricsCollector struct {
	ctx           context.Context
	logger        *logging.MetricsLogger
	metrics       map[string]*Metric
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	flushInterval time.Duration
	mu            sync.RWMutex
	closeOnce     sync.Once
}

// NewMetricsCollector creates a collector that logs every metric through
// logger once per flushInterval. A non-positive interval disables flushing.
func NewMetricsCollector(logger *logging.Logger, flushInterval time.Duration) *MetricsCollector {
	ctx, cancel := context.WithCancel(context.Background())

	mc := &MetricsCollector{
		logger:        logging.NewMetricsLogger(logger),
		metrics:       make(map[string]*Metric),
		flushInterval: flushInterval,
		ctx:           ctx,
		cancel:        cancel,
	}

	if flushInterval > 0 {
		mc.wg.Add(1)

		go mc.flushLoop()
	}

	return mc
}

// IncCounter increments a counter metric
func (mc *MetricsCollector) IncCounter(name string, labels map[string]string) {
	mc.AddCounter(name, 1, labels)
}

// AddCounter adds a value to a counter metric
func (mc *MetricsCollector) AddCounter(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	if metric, exists := mc.metrics[key]; exists {
		metric.Value += value
		metric.Timestamp = time.Now()

		return
	}

	mc.metrics[key] = &Metric{
		Name:      name,
		Type:      MetricTypeCounter,
		Value:     value,
		Labels:    copyLabels(labels),
		Timestamp: time.Now(),
	}
}

// SetGauge sets a gauge metric value
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.SetGaugeWithUnit(name, value, labels, "")
}

// SetGaugeWithUnit sets a gauge metric value with a unit
func (mc *MetricsCollector) SetGaugeWithUnit(name string, value float64, labels map[string]string, unit string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics[metricKey(name, labels)] = &Metric{
		Name:      name,
		Type:      MetricTypeGauge,
		Value:     value,
		Labels:    copyLabels(labels),
		Timestamp: time.Now(),
		Unit:      unit,
	}
}

// ObserveHistogram adds an observation to a histogram metric
func (mc *MetricsCollector) ObserveHistogram(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)

	metric, exists := mc.metrics[key]
	if !exists {
		metric = &Metric{
			Name:   name,
			Type:   MetricTypeHistogram,
			Labels: copyLabels(labels),
			Min:    value,
			Max:    value,
		}
		mc.metrics[key] = metric
	}

	metric.Value = value
	metric.Count++
	metric.Sum += value
	metric.Min = min(metric.Min, value)
	metric.Max = max(metric.Max, value)
	metric.Timestamp = time.Now()
}

// RecordDuration records a duration as a histogram metric
func (mc *MetricsCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	mc.ObserveHistogram(name, duration.Seconds(), labels)
}

// GetMetrics returns a snapshot of all current metrics keyed by series.
func (mc *MetricsCollector) GetMetrics() map[string]*Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snapshot := make(map[string]*Metric, len(mc.metrics))
	for k, v := range mc.metrics {
		snapshot[k] = v.clone()
	}

	return snapshot
}

// GetMetricsByType returns metrics filtered by type
func (mc *MetricsCollector) GetMetricsByType(metricType MetricType) []*Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var filtered []*Metric

	for _, metric := range mc.metrics {
		if metric.Type == metricType {
			filtered = append(filtered, metric.clone())
		}
	}

	return filtered
}

// Snapshot returns every metric ordered by series key.
func (mc *MetricsCollector) Snapshot() []Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	keys := make([]string, 0, len(mc.metrics))
	for k := range mc.metrics {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]Metric, 0, len(keys))
	for _, k := range keys {
		out = append(out, *mc.metrics[k].clone())
	}

	return out
}

// Reset clears all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics = make(map[string]*Metric)
}

// Close stops the flush loop after one final flush.
func (mc *MetricsCollector) Close() {
	mc.closeOnce.Do(func() {
		mc.cancel()
		mc.wg.Wait()
	})
}

func (m *Metric) clone() *Metric {
	c := *m
	c.Labels = copyLabels(m.Labels)

	return &c
}

func copyLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}

	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}

	return out
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder

	b.WriteString(name)

	for _, k := range keys {
		b.WriteString(",")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}

	return b.String()
}

func (mc *MetricsCollector) flushLoop() {
	defer mc.wg.Done()

	ticker := time.NewTicker(mc.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.ctx.Done():
			mc.Flush()
			return
		case <-ticker.C:
			mc.Flush()
		}
	}
}

// Flush logs every metric once.
func (mc *MetricsCollector) Flush() {
	for _, metric := range mc.Snapshot() {
		switch metric.Type {
		case MetricTypeCounter:
			mc.logger.LogCounter(metric.Name, int64(metric.Value), metric.Labels)
		case MetricTypeGauge:
			mc.logger.LogGauge(metric.Name, metric.Value, metric.Labels)
		case MetricTypeHistogram:
			mc.logger.LogHistogram(metric.Name, metric.Value, metric.Labels)
		}
	}
}

// ApplicationMetrics names the series the daemon records.
type ApplicationMetrics struct {
	collector *MetricsCollector
}

// NewApplicationMetrics records the daemon's metrics into collector.
func NewApplicationMetrics(collector *MetricsCollector) *ApplicationMetrics {
	return &ApplicationMetrics{
		collector: collector,
	}
}

// Collector returns the underlying collector, used by GET /metrics.
func (am *ApplicationMetrics) Collector() *MetricsCollector {
	return am.collector
}

// RecordPacket counts one packet written to the device, by packet type.
func (am *ApplicationMetrics) RecordPacket(packetType string) {
	am.collector.IncCounter("dmx_packets_total", map[string]string{"type": packetType})
}

// RecordFrame records one full frame transmission.
func (am *ApplicationMetrics) RecordFrame(success bool, duration time.Duration) {
	labels := successLabels(success)

	am.collector.IncCounter("dmx_frames_total", labels)
	am.collector.RecordDuration("dmx_frame_duration_seconds", duration, labels)
}

// RecordAnimation records a finished (or failed) animate request.
func (am *ApplicationMetrics) RecordAnimation(ease string, frames int, success bool, duration time.Duration) {
	labels := successLabels(success)
	labels["ease"] = ease

	am.collector.IncCounter("animations_total", labels)
	am.collector.ObserveHistogram("animation_frames", float64(frames), map[string]string{"ease": ease})
	am.collector.RecordDuration("animation_duration_seconds", duration, labels)
}

// RecordRequest records an HTTP request by route and status code.
func (am *ApplicationMetrics) RecordRequest(route string, status int, duration time.Duration) {
	labels := map[string]string{
		"route":  route,
		"status": strconv.Itoa(status),
	}

	am.collector.IncCounter("http_requests_total", labels)
	am.collector.RecordDuration("http_request_duration_seconds", duration, map[string]string{"route": route})
}

// RecordConfigReload records configuration reload metrics
func (am *ApplicationMetrics) RecordConfigReload(success bool, duration time.Duration) {
	labels := successLabels(success)

	am.collector.IncCounter("config_reloads_total", labels)
	am.collector.RecordDuration("config_reload_duration_seconds", duration, labels)
}

// RecordDaemonUptime records daemon uptime
func (am *ApplicationMetrics) RecordDaemonUptime(uptime time.Duration) {
	am.collector.SetGaugeWithUnit("daemon_uptime_seconds", uptime.Seconds(), nil, "seconds")
}

func successLabels(success bool) map[string]string {
	return map[string]string{"success": strconv.FormatBool(success)}
}

// Timer provides convenient timing functionality
type Timer struct {
	startTime time.Time
	labels    map[string]string
	collector *MetricsCollector
	name      string
}

// StartTimer creates and starts a new timer
func (mc *MetricsCollector) StartTimer(name string, labels map[string]string) *Timer {
	return &Timer{
		startTime: time.Now(),
		name:      name,
		labels:    labels,
		collector: mc,
	}
}

// Stop stops the timer and records the duration
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.startTime)
	t.collector.RecordDuration(t.name, duration, t.labels)

	return duration
}

// StopWithSuccess stops the timer and records success/failure
func (t *Timer) StopWithSuccess(success bool) time.Duration {
	duration := time.Since(t.startTime)

	labels := copyLabels(t.labels)
	if labels == nil {
		labels = make(map[string]string, 1)
	}

	labels["success"] = strconv.FormatBool(success)

	t.collector.RecordDuration(t.name, duration, labels)

	return duration
}
