package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	PassesTotal    *prometheus.CounterVec
	PassDuration   *prometheus.HistogramVec
	PassIncidents  prometheus.Histogram
	IncidentsTotal *prometheus.CounterVec
	LLMCallsTotal  prometheus.Counter
	LLMTokensIn    prometheus.Counter
	LLMTokensOut   prometheus.Counter
	LLMDuration    prometheus.Histogram
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PassesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autotriage_passes_total",
			Help: "Total triage passes by final status.",
		}, []string{"status"}),
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autotriage_pass_duration_seconds",
			Help:    "Duration of triage passes in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s .. ~512s
		}, []string{"status", "model"}),
		PassIncidents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "autotriage_pass_incidents",
			Help:    "Open incidents processed per pass.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 .. ~512
		}),
		IncidentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autotriage_incidents_total",
			Help: "Total incidents processed by outcome action.",
		}, []string{"action"}),
		LLMCallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autotriage_llm_calls_total",
			Help: "Total LLM provider calls.",
		}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autotriage_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autotriage_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "autotriage_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}),
	}

	reg.MustRegister(
		m.PassesTotal,
		m.PassDuration,
		m.PassIncidents,
		m.IncidentsTotal,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.LLMDuration,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnLLMCall: func(inputTokens, outputTokens int, duration float64) {
			m.LLMCallsTotal.Inc()
			m.LLMTokensIn.Add(float64(inputTokens))
			m.LLMTokensOut.Add(float64(outputTokens))
			m.LLMDuration.Observe(duration)
		},
		OnIncident: func(action string, _ float64) {
			m.IncidentsTotal.WithLabelValues(action).Inc()
		},
	}
}

// ObservePass records the pass-level metrics for a finished run.
func (m *Metrics) ObservePass(run *Run) {
	m.PassesTotal.WithLabelValues(string(run.Status)).Inc()
	m.PassDuration.WithLabelValues(string(run.Status), run.Model).Observe(run.Duration)
	m.PassIncidents.Observe(float64(run.Seen))
}
