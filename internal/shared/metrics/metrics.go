package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	diagnosisStartedTotal   atomic.Uint64
	diagnosisCompletedTotal atomic.Uint64
	diagnosisFallbackTotal  atomic.Uint64
	uploadRejectedTotal     atomic.Uint64
	imagesAnalyzedTotal     atomic.Uint64

	diagnosisFailed = newLabeledCounter()

	diagnosisDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncDiagnosisStarted increments the started counter.
func IncDiagnosisStarted() {
	diagnosisStartedTotal.Add(1)
}

// IncDiagnosisCompleted increments the completed counter and adds the
// number of images sent with the call.
func IncDiagnosisCompleted(images int) {
	diagnosisCompletedTotal.Add(1)
	if images > 0 {
		imagesAnalyzedTotal.Add(uint64(images))
	}
}

// IncDiagnosisFallback counts replies that could not be parsed.
func IncDiagnosisFallback() {
	diagnosisFallbackTotal.Add(1)
}

// IncDiagnosisFailed increments the failed counter for a remote error category.
func IncDiagnosisFailed(category string) {
	diagnosisFailed.Inc(category)
}

// AddUploadRejected counts rejected upload files.
func AddUploadRejected(n int) {
	if n > 0 {
		uploadRejectedTotal.Add(uint64(n))
	}
}

// ObserveDiagnosisDurationMs records a remote call duration in milliseconds.
func ObserveDiagnosisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	diagnosisDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "diagnosis_started_total", "Total diagnoses started", diagnosisStartedTotal.Load())
	writeCounter(&buf, "diagnosis_completed_total", "Total diagnoses completed", diagnosisCompletedTotal.Load())
	writeCounter(&buf, "diagnosis_fallback_total", "Model replies replaced by the fallback result", diagnosisFallbackTotal.Load())
	writeLabeledCounter(&buf, "diagnosis_failed_total", "Total diagnoses failed by category", "category", diagnosisFailed.Snapshot())
	writeCounter(&buf, "upload_rejected_total", "Total rejected upload files", uploadRejectedTotal.Load())
	writeCounter(&buf, "images_analyzed_total", "Total images sent for analysis", imagesAnalyzedTotal.Load())
	writeHistogram(&buf, "diagnosis_duration_ms", "Remote diagnosis duration in milliseconds", diagnosisDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	if label == "" {
		label = "unknown"
	}
	l.mu.Lock()
	l.values[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe stores value in the first bucket whose bound holds it; Render
// accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
