package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_auth_attempts_total",
		Help: "Number of auth operations grouped by operation and status.",
	}, []string{"op", "status"})

	postOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_post_operations_total",
		Help: "Number of post operations grouped by operation and status.",
	}, []string{"op", "status"})
)

// IncAuth increments the auth counter for register/login/update.
func IncAuth(op, status string) {
	authAttempts.WithLabelValues(op, status).Inc()
}

// IncPost increments the post CRUD counter.
func IncPost(op, status string) {
	postOperations.WithLabelValues(op, status).Inc()
}
