package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	chatTurnsTotal        atomic.Uint64
	chatTurnsFailedTotal  atomic.Uint64
	extractionJobsTotal   atomic.Uint64
	extractionIssuesTotal atomic.Uint64
	extractionDropsTotal  atomic.Uint64
	synthesisTotal        atomic.Uint64
	synthesisFailedTotal  atomic.Uint64

	chatTurnDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncChatTurn increments the chat turn counter.
func IncChatTurn() {
	chatTurnsTotal.Add(1)
}

// IncChatTurnFailed increments the failed chat turn counter.
func IncChatTurnFailed() {
	chatTurnsFailedTotal.Add(1)
}

// IncExtractionJob increments the issue-extraction job counter.
func IncExtractionJob() {
	extractionJobsTotal.Add(1)
}

// AddExtractionIssues adds to the created-issue counter.
func AddExtractionIssues(n int) {
	if n > 0 {
		extractionIssuesTotal.Add(uint64(n))
	}
}

// IncExtractionDropped increments the dropped (parse failure or swallowed) job counter.
func IncExtractionDropped() {
	extractionDropsTotal.Add(1)
}

// IncSynthesis increments the speech synthesis counter.
func IncSynthesis() {
	synthesisTotal.Add(1)
}

// IncSynthesisFailed increments the failed synthesis counter.
func IncSynthesisFailed() {
	synthesisFailedTotal.Add(1)
}

// ObserveChatTurnDurationMs records a chat turn duration in milliseconds.
func ObserveChatTurnDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	chatTurnDuration.Observe(value)
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
	writeCounter(&buf, "chat_turns_total", "Total chat turns handled", chatTurnsTotal.Load())
	writeCounter(&buf, "chat_turns_failed_total", "Total chat turns that failed at the model", chatTurnsFailedTotal.Load())
	writeCounter(&buf, "issue_extraction_jobs_total", "Total issue extraction jobs processed", extractionJobsTotal.Load())
	writeCounter(&buf, "issue_extraction_issues_total", "Total issues created by extraction", extractionIssuesTotal.Load())
	writeCounter(&buf, "issue_extraction_dropped_total", "Total extraction jobs dropped after parse failure", extractionDropsTotal.Load())
	writeCounter(&buf, "speech_synthesis_total", "Total speech synthesis requests", synthesisTotal.Load())
	writeCounter(&buf, "speech_synthesis_failed_total", "Total failed speech synthesis requests", synthesisFailedTotal.Load())
	writeHistogram(&buf, "chat_turn_duration_ms", "Chat turn duration in milliseconds", chatTurnDuration.Snapshot())
	return buf.String()
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
