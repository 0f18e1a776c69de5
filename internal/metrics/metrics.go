package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SensorPolls counts sensor polls by result (ok, error).
	SensorPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_polls_total",
			Help: "Total number of sensor endpoint polls by result",
		},
		[]string{"result"},
	)

	// SensorReading holds the last accepted reading per measurement.
	SensorReading = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sensor_reading",
			Help: "Last accepted sensor reading",
		},
		[]string{"measurement"},
	)

	// Watering is 1 while any schedule is active, 0 otherwise.
	Watering = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "irrigation_watering",
			Help: "Whether the system is currently watering (1) or offline (0)",
		},
	)

	// Schedules is the size of the in-memory schedule collection.
	Schedules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "irrigation_schedules",
			Help: "Number of schedules in the shared collection",
		},
	)

	// StoreErrors counts failed backend writes by operation; each one triggered a rollback.
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_store_errors_total",
			Help: "Failed schedule store operations by op",
		},
		[]string{"op"},
	)
)

var (
	idPathSegment = regexp.MustCompile(`/([0-9]+|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}|temp-[0-9-]+)(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, SensorPolls, SensorReading, Watering, Schedules, StoreErrors)
	})
}

// NormalizePath reduces cardinality by replacing id path segments with {id}.
// E.g. /schedules/3f0c...-... -> /schedules/{id}. Numeric, UUID and temporary ids are recognized.
func NormalizePath(path string) string {
	return idPathSegment.ReplaceAllString(path, "/{id}$2")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordSensorPoll counts one poll of the sensor endpoint.
func RecordSensorPoll(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	SensorPolls.WithLabelValues(result).Inc()
}

// SetSensorReading publishes an accepted reading.
func SetSensorReading(waterLevel, humidity, temperature, soilMoisture float64) {
	SensorReading.WithLabelValues("water_level").Set(waterLevel)
	SensorReading.WithLabelValues("humidity").Set(humidity)
	SensorReading.WithLabelValues("temperature").Set(temperature)
	SensorReading.WithLabelValues("soil_moisture").Set(soilMoisture)
}

// SetWatering publishes the current watering status.
func SetWatering(on bool) {
	if on {
		Watering.Set(1)
		return
	}
	Watering.Set(0)
}

// SetSchedules publishes the collection size.
func SetSchedules(n int) {
	Schedules.Set(float64(n))
}

// IncStoreErrors counts a failed store operation (list, create, delete).
func IncStoreErrors(op string) {
	StoreErrors.WithLabelValues(op).Inc()
}
