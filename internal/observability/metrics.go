package observability

// Metric names emitted by the relay.
const (
	// MetricSignalsReceived counts webhook signals accepted for processing.
	MetricSignalsReceived = "relay.signals.received"
	// MetricSignalsRejected counts signals refused before submission.
	MetricSignalsRejected = "relay.signals.rejected"
	// MetricOrdersSubmitted counts orders forwarded to the exchange.
	MetricOrdersSubmitted = "relay.orders.submitted"
	// MetricOrdersFailed counts order submissions the exchange refused.
	MetricOrdersFailed = "relay.orders.failed"
	// MetricWebhookDuration records end-to-end webhook handling time in seconds.
	MetricWebhookDuration = "relay.webhook.duration"
)

// Metrics provides counters, gauges, and histogram recording primitives.
type Metrics interface {
	IncCounter(name string, value float64, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
}

var defaultMetrics Metrics = noopMetrics{}

// SetMetrics overrides the global metrics implementation used by the system.
func SetMetrics(metrics Metrics) {
	if metrics == nil {
		defaultMetrics = noopMetrics{}
		return
	}
	defaultMetrics = metrics
}

// Telemetry returns the current global metrics collector.
func Telemetry() Metrics {
	return defaultMetrics
}

type noopMetrics struct{}

func (noopMetrics) IncCounter(string, float64, map[string]string)       {}
func (noopMetrics) ObserveHistogram(string, float64, map[string]string) {}
func (noopMetrics) SetGauge(string, float64, map[string]string)         {}
