// metrics — прометеевские метрики жизненного цикла сессий.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результат успешной операции; для отказов используется ключ ошибки таксономии.
const ResultOK = "ok"

// Metrics — счётчики операций и гистограмма времени хэширования.
type Metrics struct {
	Operations   *prometheus.CounterVec
	HashDuration *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg (nil — без регистрации).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Auth operations by outcome.",
		}, []string{"operation", "result"}),
		HashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_hash_duration_seconds",
			Help:    "Argon2id hash/verify latency.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"action"}),
	}

	if reg != nil {
		reg.MustRegister(m.Operations, m.HashDuration)
	}

	return m
}

// Observe учитывает исход операции. Безопасен для nil-получателя.
func (m *Metrics) Observe(operation, result string) {
	if m == nil {
		return
	}

	m.Operations.WithLabelValues(operation, result).Inc()
}

// ObserveHash учитывает длительность хэширования. Безопасен для nil-получателя.
func (m *Metrics) ObserveHash(action string, d time.Duration) {
	if m == nil {
		return
	}

	m.HashDuration.WithLabelValues(action).Observe(d.Seconds())
}
