package prometheus

import (
	"attendance-service/pkg/config"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth metrics
	LoginCounter    prometheus.Counter
	RegisterCounter prometheus.Counter

	// Attendance metrics
	AttendanceWriteCounter  *prometheus.CounterVec
	AttendanceDeleteCounter prometheus.Counter

	// Authorization metrics
	AuthorizationDeniedCounter *prometheus.CounterVec

	// Delegation metrics
	DelegationOperationCounter *prometheus.CounterVec
	ActiveDelegationsGauge     prometheus.Gauge

	// Capacity metrics
	CapacityUpdateCounter prometheus.Counter

	// Database operation metrics
	DBOperationHistogram *prometheus.HistogramVec

	// Request metrics
	RequestDurationHistogram *prometheus.HistogramVec
	APIRequestCounter        *prometheus.CounterVec
	APIErrorCounter          *prometheus.CounterVec

	// Namespace prefix for metrics
	namespace string
)

// InitMetrics initializes all Prometheus metrics
func InitMetrics(cfg *config.Config) {
	namespace = cfg.Metrics.Prefix

	// Auth metrics
	LoginCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_total",
		Help:      "Total number of login attempts",
	})

	RegisterCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "register_total",
		Help:      "Total number of user registrations",
	})

	// Attendance metrics
	AttendanceWriteCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_writes_total",
			Help:      "Total number of attendance upserts",
		},
		[]string{"path", "status"},
	)

	AttendanceDeleteCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_deletes_total",
		Help:      "Total number of attendance record deletions",
	})

	// Authorization metrics
	AuthorizationDeniedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_denied_total",
			Help:      "Total number of denied authorization checks",
		},
		[]string{"operation"},
	)

	// Delegation metrics
	DelegationOperationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegation_operations_total",
			Help:      "Total number of delegation lifecycle operations",
		},
		[]string{"operation"},
	)

	ActiveDelegationsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_delegations",
		Help:      "Number of currently active delegations",
	})

	// Capacity metrics
	CapacityUpdateCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capacity_updates_total",
		Help:      "Total number of office capacity updates",
	})

	// Database operation metrics
	DBOperationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_operation_duration_seconds",
			Help:      "Duration of database operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Request metrics
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path"},
	)

	APIErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors",
		},
		[]string{"method", "path", "status"},
	)
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Track API request count
			APIRequestCounter.With(prometheus.Labels{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Inc()

			// Process the request
			err := next(c)

			// Track request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			RequestDurationHistogram.With(prometheus.Labels{
				"method": c.Request().Method,
				"path":   c.Path(),
				"status": status,
			}).Observe(duration)

			// Track errors
			if c.Response().Status >= 400 {
				APIErrorCounter.With(prometheus.Labels{
					"method": c.Request().Method,
					"path":   c.Path(),
					"status": status,
				}).Inc()
			}

			return err
		}
	}
}

// HandlerFunc returns a HTTP handler for metrics endpoint
func HandlerFunc() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// TrackDBOperation returns a function that tracks database operation duration
func TrackDBOperation(operation string) func(time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationHistogram.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// RecordAttendanceWrite increments the attendance write counter for one of
// the two write paths (self_service or allocation)
func RecordAttendanceWrite(path, status string) {
	AttendanceWriteCounter.With(prometheus.Labels{
		"path":   path,
		"status": status,
	}).Inc()
}

// RecordAuthorizationDenied increments the denied-authorization counter
func RecordAuthorizationDenied(operation string) {
	AuthorizationDeniedCounter.With(prometheus.Labels{
		"operation": operation,
	}).Inc()
}

// RecordDelegationOperation increments the delegation lifecycle counter
func RecordDelegationOperation(operation string) {
	DelegationOperationCounter.With(prometheus.Labels{
		"operation": operation,
	}).Inc()
}
