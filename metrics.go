package zmq

import (
	"github.com/prometheus/client_golang/prometheus"
)

// authMetrics 认证判定计数
//
// 每个 Authenticator 持有独立的计数器，由调用方决定注册到哪个 Registry。
type authMetrics struct {
	decisions *prometheus.CounterVec
}

func newAuthMetrics() *authMetrics {
	return &authMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zmq",
			Subsystem: "auth",
			Name:      "decisions_total",
			Help:      "Admission decisions made by the authenticator, by result.",
		}, []string{"result"}),
	}
}

func (m *authMetrics) observe(result string) {
	m.decisions.WithLabelValues(result).Inc()
}
