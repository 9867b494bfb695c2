package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "labhive"

// Metrics holds the application counters. Each instance owns its registry
// so tests can create as many as they need.
type Metrics struct {
	Registry *prometheus.Registry

	RateLimited    *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	Registrations  *prometheus.CounterVec
	PasswordResets *prometheus.CounterVec
	MailsSent      *prometheus.CounterVec
	MailsFailed    *prometheus.CounterVec
	TokensPurged   prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests that exceeded the per-IP budget",
		}, []string{"enforced"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registered users by role",
		}, []string{"role"}),
		PasswordResets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_resets_total",
			Help:      "Password reset requests and redemptions by stage and result",
		}, []string{"stage", "result"}),
		MailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mails_sent_total",
			Help:      "Outbound mails delivered by kind",
		}, []string{"kind"}),
		MailsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mails_failed_total",
			Help:      "Outbound mails recorded as failed by kind",
		}, []string{"kind"}),
		TokensPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_purged_total",
			Help:      "Expired reset tokens removed by the scheduler",
		}),
	}
}
