package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency       = "APILatency"
	MetricAPIRequestCount  = "APIRequestCount"
	MetricDeliveryAttempt  = "DeliveryAttempt"
	MetricDeliveryLatency  = "DeliveryLatency"
	MetricBroadcastSize    = "BroadcastSize"
	MetricBroadcastFailure = "BroadcastFailure"

	// Dimension Keys
	DimEndpoint    = "Endpoint"
	DimMethod      = "Method"
	DimStatus      = "Status"
	DimMessageKind = "MessageKind"
	DimResult      = "Result"

	// Default Metric Namespace
	MetricNamespace = "MessengerRelay"
)
