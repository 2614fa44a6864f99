package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SessionsStarted counts checkout sessions opened.
	SessionsStarted prometheus.Counter
	// SessionOutcomes counts terminal session outcomes by kind.
	SessionOutcomes *prometheus.CounterVec
	// StatusPollTotal counts status-poll results.
	StatusPollTotal *prometheus.CounterVec
	// TerminalSignals counts terminal signals by source and whether they were accepted.
	TerminalSignals *prometheus.CounterVec
	// FinalizeTotal counts finalization attempts by mode and result.
	FinalizeTotal *prometheus.CounterVec
	// SessionDuration records time from open to terminal outcome in milliseconds.
	SessionDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers checkout Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_started_total",
			Help:      "Total number of checkout sessions opened.",
		})
		SessionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_session_outcomes_total",
			Help:      "Count of terminal checkout outcomes by kind.",
		}, []string{"outcome"})
		StatusPollTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_status_poll_total",
			Help:      "Count of order status poll results.",
		}, []string{"result"})
		TerminalSignals = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_terminal_signals_total",
			Help:      "Count of terminal signals observed by source and disposition.",
		}, []string{"source", "disposition"})
		FinalizeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_finalize_total",
			Help:      "Count of finalization attempts by mode and result.",
		}, []string{"mode", "result"})
		SessionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_session_duration_ms",
			Help:      "Time from open to terminal outcome in milliseconds.",
			Buckets:   []float64{100, 500, 1000, 5000, 15000, 60000, 180000, 300000},
		}, []string{"outcome"})

		mustRegisterCollector(reg, SessionsStarted, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SessionsStarted = v
			}
		})
		mustRegisterCollector(reg, SessionOutcomes, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SessionOutcomes = v
			}
		})
		mustRegisterCollector(reg, StatusPollTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				StatusPollTotal = v
			}
		})
		mustRegisterCollector(reg, TerminalSignals, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TerminalSignals = v
			}
		})
		mustRegisterCollector(reg, FinalizeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				FinalizeTotal = v
			}
		})
		mustRegisterCollector(reg, SessionDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				SessionDuration = v
			}
		})
	})
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, replace func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			replace(are.ExistingCollector)
			return
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
}
