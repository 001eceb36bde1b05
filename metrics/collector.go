package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "remo"
)

// Collector records what the bridge does: API calls, rate limits and
// commands. It implements prometheus.Collector.
type Collector struct {
	mu             sync.RWMutex
	apiMetrics     *APIMetrics
	commands       map[commandKey]float64
	lastUpdateTime time.Time

	// Prometheus metric descriptors
	apiRequestTotalDesc       *prometheus.Desc
	apiRequestDurationDesc    *prometheus.Desc
	apiRateLimitLimitDesc     *prometheus.Desc
	apiRateLimitRemainingDesc *prometheus.Desc
	apiRateLimitResetDesc     *prometheus.Desc
	commandsTotalDesc         *prometheus.Desc
	lastUpdateTimestampDesc   *prometheus.Desc
}

type APIMetrics struct {
	RequestCount    map[apiKey]float64
	RequestDuration map[string]float64 // key: endpoint
	RateLimitLimit  float64
	RateLimitRemain float64
	RateLimitReset  float64
}

type apiKey struct {
	endpoint string
	status   string
}

type commandKey struct {
	id     string
	kind   string
	result string
}

type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     int64
}

func NewCollector() *Collector {
	return &Collector{
		apiMetrics: &APIMetrics{
			RequestCount:    make(map[apiKey]float64),
			RequestDuration: make(map[string]float64),
		},
		commands: make(map[commandKey]float64),

		apiRequestTotalDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "requests_total"),
			"Total number of API requests",
			[]string{"endpoint", "status"}, nil,
		),
		apiRequestDurationDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "request_duration_seconds"),
			"Duration of the last API request in seconds",
			[]string{"endpoint"}, nil,
		),
		apiRateLimitLimitDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "rate_limit_limit"),
			"API rate limit maximum",
			nil, nil,
		),
		apiRateLimitRemainingDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "rate_limit_remaining"),
			"API rate limit remaining",
			nil, nil,
		),
		apiRateLimitResetDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "rate_limit_reset_timestamp"),
			"API rate limit reset timestamp",
			nil, nil,
		),
		commandsTotalDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "aircon", "commands_total"),
			"Total number of aircon commands sent",
			[]string{"id", "kind", "result"}, nil,
		),
		lastUpdateTimestampDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "last_update_timestamp"),
			"Timestamp of the last successful poll",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.apiRequestTotalDesc
	ch <- c.apiRequestDurationDesc
	ch <- c.apiRateLimitLimitDesc
	ch <- c.apiRateLimitRemainingDesc
	ch <- c.apiRateLimitResetDesc
	ch <- c.commandsTotalDesc
	ch <- c.lastUpdateTimestampDesc
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, count := range c.apiMetrics.RequestCount {
		ch <- prometheus.MustNewConstMetric(
			c.apiRequestTotalDesc,
			prometheus.CounterValue,
			count,
			key.endpoint,
			key.status,
		)
	}

	for endpoint, duration := range c.apiMetrics.RequestDuration {
		ch <- prometheus.MustNewConstMetric(
			c.apiRequestDurationDesc,
			prometheus.GaugeValue,
			duration,
			endpoint,
		)
	}

	ch <- prometheus.MustNewConstMetric(
		c.apiRateLimitLimitDesc,
		prometheus.GaugeValue,
		c.apiMetrics.RateLimitLimit,
	)
	ch <- prometheus.MustNewConstMetric(
		c.apiRateLimitRemainingDesc,
		prometheus.GaugeValue,
		c.apiMetrics.RateLimitRemain,
	)
	ch <- prometheus.MustNewConstMetric(
		c.apiRateLimitResetDesc,
		prometheus.GaugeValue,
		c.apiMetrics.RateLimitReset,
	)

	for key, count := range c.commands {
		ch <- prometheus.MustNewConstMetric(
			c.commandsTotalDesc,
			prometheus.CounterValue,
			count,
			key.id,
			key.kind,
			key.result,
		)
	}

	ch <- prometheus.MustNewConstMetric(
		c.lastUpdateTimestampDesc,
		prometheus.GaugeValue,
		float64(c.lastUpdateTime.Unix()),
	)
}

// UpdateAPIMetrics updates API-related metrics
func (c *Collector) UpdateAPIMetrics(endpoint string, statusCode int, duration float64, rateLimit *RateLimitInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := apiKey{endpoint: endpoint, status: fmt.Sprintf("%d", statusCode)}
	c.apiMetrics.RequestCount[key]++
	c.apiMetrics.RequestDuration[endpoint] = duration

	if rateLimit != nil {
		c.apiMetrics.RateLimitLimit = float64(rateLimit.Limit)
		c.apiMetrics.RateLimitRemain = float64(rateLimit.Remaining)
		c.apiMetrics.RateLimitReset = float64(rateLimit.Reset)
	}
}

// RecordCommand counts a command by its outcome.
func (c *Collector) RecordCommand(id, kind string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := "success"
	if err != nil {
		result = "error"
	}
	c.commands[commandKey{id: id, kind: kind, result: result}]++
}

// MarkUpdated sets the last update timestamp.
func (c *Collector) MarkUpdated(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUpdateTime = t
}
