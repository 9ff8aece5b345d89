// Package telemetry publishes relay metrics to AWS CloudWatch.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"messengerbot/internal/types"
)

// putTimeout bounds a PutMetricData call issued outside a request context.
const putTimeout = 2 * time.Second

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// NewCloudWatchClient builds a CloudWatch client from the default AWS config.
// endpoint overrides the service endpoint (LocalStack) when non-empty.
func NewCloudWatchClient(ctx context.Context, region, endpoint string) (*cloudwatch.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for CloudWatch (region=%s): %w", region, err)
	}
	return cloudwatch.NewFromConfig(cfg, func(o *cloudwatch.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// CloudWatchMetrics emits delivery and API metrics.
//
// Metrics emitted:
//   - DeliveryAttempt: Dims {MessageKind, Result}, one per Send API call
//   - DeliveryLatency: Dims {MessageKind}, milliseconds
//   - BroadcastSize, BroadcastFailure: no dims, one pair per broadcast
//   - APIRequestCount, APILatency: Dims {Method, Endpoint, Status}
//
// Publishing failures are logged and never surface to callers.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to namespace,
// or to types.MetricNamespace when namespace is empty.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

var _ types.DeliveryMetrics = (*CloudWatchMetrics)(nil)

// RecordDelivery emits DeliveryAttempt and DeliveryLatency for one Send API call.
func (m *CloudWatchMetrics) RecordDelivery(ctx context.Context, kind types.MessageKind, result types.DeliveryResult, duration time.Duration) {
	kindDim := dimension(types.DimMessageKind, string(kind))

	m.put(ctx, "delivery",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricDeliveryAttempt),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{kindDim, dimension(types.DimResult, string(result))},
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricDeliveryLatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{kindDim},
		},
	)
}

// RecordBroadcast emits the fan-out size and failure count of one broadcast.
func (m *CloudWatchMetrics) RecordBroadcast(ctx context.Context, recipients, failed int) {
	m.put(ctx, "broadcast",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricBroadcastSize),
			Value:      aws.Float64(float64(recipients)),
			Unit:       cwtypes.StandardUnitCount,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricBroadcastFailure),
			Value:      aws.Float64(float64(failed)),
			Unit:       cwtypes.StandardUnitCount,
		},
	)
}

// RecordRequest implements core.MetricsCollector. It runs after the response
// is written, so it uses its own short-lived context.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
	defer cancel()

	dims := []cwtypes.Dimension{
		dimension(types.DimMethod, method),
		dimension(types.DimEndpoint, endpoint),
		dimension(types.DimStatus, status),
	}
	m.put(ctx, "request",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

func (m *CloudWatchMetrics) put(ctx context.Context, what string, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record "+what+" metric", "error", err.Error())
	}
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
