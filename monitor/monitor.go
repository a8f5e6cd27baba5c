// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Move outcomes.
const (
	MoveAccepted = "accepted"
	MoveRejected = "rejected"
)

type Metrics struct {
	OnlineSessions    prometheus.Gauge
	MessagesReceived  prometheus.Counter
	CommandLatency    prometheus.Histogram
	Moves             *prometheus.CounterVec
	Rounds            *prometheus.CounterVec
	TurnTimeouts      prometheus.Counter
	BroadcastFailures prometheus.Counter
	BoardAttempts     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		OnlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_sessions",
			Help:      "Number of connected sessions",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of client frames received",
		}),
		CommandLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_seconds",
			Help:      "Time from submitting a command to the room loop until it completes",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		Moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Move intents by outcome",
		}, []string{"result"}),
		Rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Finished rounds by winner and cause",
		}, []string{"winner", "cause"}),
		TurnTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_timeouts_total",
			Help:      "Turns passed because the countdown expired",
		}),
		BroadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_failures_total",
			Help:      "Frames dropped for a single recipient",
		}),
		BoardAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "board_attempts",
			Help:      "Candidates sampled per accepted board",
			Buckets:   []float64{1, 2, 4, 8, 16, 64, 256, 1024},
		}),
	}
}

// Monitor owns a private registry so several instances can coexist in tests.
// All methods are safe on a nil *Monitor.
type Monitor struct {
	metrics      *Metrics
	registry     *prometheus.Registry
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

var (
	publishOnce sync.Once
	current     atomic.Pointer[Monitor]
)

func NewMonitor(namespace string) *Monitor {
	m := &Monitor{
		metrics:   NewMetrics(namespace),
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		m.metrics.OnlineSessions,
		m.metrics.MessagesReceived,
		m.metrics.CommandLatency,
		m.metrics.Moves,
		m.metrics.Rounds,
		m.metrics.TurnTimeouts,
		m.metrics.BroadcastFailures,
		m.metrics.BoardAttempts,
		collectors.NewGoCollector(),
	)

	current.Store(m)
	publishOnce.Do(publishExpvars)
	return m
}

// expvar names are process-global; they read whichever monitor was created last.
func publishExpvars() {
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		if m := current.Load(); m != nil {
			return time.Since(m.startTime).Seconds()
		}
		return 0
	}))

	expvar.Publish("requests", expvar.Func(func() interface{} {
		if m := current.Load(); m != nil {
			return m.RequestCount()
		}
		return int64(0)
	}))
}

// Handler serves this monitor's registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

func (m *Monitor) SetOnline(count int) {
	if m == nil {
		return
	}
	m.metrics.OnlineSessions.Set(float64(count))
}

func (m *Monitor) IncMessagesReceived() {
	if m == nil {
		return
	}
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) RequestCount() int64 {
	if m == nil {
		return 0
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.requestCount
}

func (m *Monitor) ObserveCommandLatency(duration time.Duration) {
	if m == nil {
		return
	}
	m.metrics.CommandLatency.Observe(duration.Seconds())
}

func (m *Monitor) RecordMove(accepted bool) {
	if m == nil {
		return
	}
	result := MoveRejected
	if accepted {
		result = MoveAccepted
	}
	m.metrics.Moves.WithLabelValues(result).Inc()
}

func (m *Monitor) RecordRound(winner, cause string) {
	if m == nil {
		return
	}
	m.metrics.Rounds.WithLabelValues(winner, cause).Inc()
}

func (m *Monitor) IncTurnTimeouts() {
	if m == nil {
		return
	}
	m.metrics.TurnTimeouts.Inc()
}

func (m *Monitor) IncBroadcastFailures() {
	if m == nil {
		return
	}
	m.metrics.BroadcastFailures.Inc()
}

func (m *Monitor) ObserveBoardAttempts(attempts int) {
	if m == nil || attempts <= 0 {
		return
	}
	m.metrics.BoardAttempts.Observe(float64(attempts))
}
