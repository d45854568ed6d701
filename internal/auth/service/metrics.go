package service

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeUnknown  = "unknown_account"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "policy_rejected"
	OutcomeError    = "error"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ResetRequests  *prometheus.CounterVec
	Resets         *prometheus.CounterVec
	Changes        *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	MailFailures   prometheus.Counter
	ExpiredCleared prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewMetrics builds the collectors and registers them on reg. A nil reg
// uses prometheus.DefaultRegisterer. Collectors that are already registered
// are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counterVec := func(name, help string, labels ...string) (*prometheus.CounterVec, error) {
		return registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worklog",
			Subsystem: "auth",
			Name:      name,
			Help:      help,
		}, labels))
	}
	counter := func(name, help string) (prometheus.Counter, error) {
		return registerCollector[prometheus.Counter](reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "worklog",
			Subsystem: "auth",
			Name:      name,
			Help:      help,
		}))
	}

	var (
		m   Metrics
		err error
	)
	if m.ResetRequests, err = counterVec("password_reset_requests_total",
		"Forgot-password requests partitioned by outcome.", "outcome"); err != nil {
		return nil, err
	}
	if m.Resets, err = counterVec("password_resets_total",
		"Password reset attempts with a token partitioned by outcome.", "outcome"); err != nil {
		return nil, err
	}
	if m.Changes, err = counterVec("password_changes_total",
		"Authenticated password changes partitioned by outcome.", "outcome"); err != nil {
		return nil, err
	}
	if m.Logins, err = counterVec("logins_total",
		"Password logins partitioned by outcome.", "outcome"); err != nil {
		return nil, err
	}
	if m.MailFailures, err = counter("reset_mail_failures_total",
		"Password mails that could not be delivered."); err != nil {
		return nil, err
	}
	if m.ExpiredCleared, err = counter("expired_reset_tokens_cleared_total",
		"Expired reset tokens cleared by housekeeping."); err != nil {
		return nil, err
	}
	if m.HTTPRequests, err = counterVec("http_requests_total",
		"HTTP requests partitioned by route and status code.", "route", "status"); err != nil {
		return nil, err
	}
	if m.HTTPDuration, err = registerCollector(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "worklog",
		Subsystem: "auth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latencies in seconds partitioned by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})); err != nil {
		return nil, err
	}

	return &m, nil
}

func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
			return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return c, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

func (m *Metrics) resetRequest(outcome string) {
	if m != nil {
		m.ResetRequests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) reset(outcome string) {
	if m != nil {
		m.Resets.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) change(outcome string) {
	if m != nil {
		m.Changes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) login(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) mailFailure() {
	if m != nil {
		m.MailFailures.Inc()
	}
}

func (m *Metrics) expiredCleared(n int64) {
	if m != nil && n > 0 {
		m.ExpiredCleared.Add(float64(n))
	}
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, fmt.Sprint(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}
