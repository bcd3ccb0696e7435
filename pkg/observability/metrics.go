package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsPublisher sends operational counters to a metrics backend.
type MetricsPublisher interface {
	Count(ctx context.Context, name string, value float64, dims map[string]string)
	Timing(ctx context.Context, name string, d time.Duration, dims map[string]string)
}

// CloudWatchMetrics publishes metrics to a CloudWatch namespace.
type CloudWatchMetrics struct {
	client    *cloudwatch.Client
	namespace string
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a CloudWatch-backed metrics publisher.
func NewCloudWatchMetrics(client *cloudwatch.Client, namespace string, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// Count records a counter metric.
func (m *CloudWatchMetrics) Count(ctx context.Context, name string, value float64, dims map[string]string) {
	m.put(ctx, name, value, types.StandardUnitCount, dims)
}

// Timing records a duration metric in milliseconds.
func (m *CloudWatchMetrics) Timing(ctx context.Context, name string, d time.Duration, dims map[string]string) {
	m.put(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, dims)
}

func (m *CloudWatchMetrics) put(ctx context.Context, name string, value float64, unit types.StandardUnit, dims map[string]string) {
	dimensions := make([]types.Dimension, 0, len(dims))
	for k, v := range dims {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(k),
			Value: aws.String(v),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})
	if err != nil {
		// Metrics are best-effort; never fail the operation.
		m.logger.Warn("Failed to publish metric",
			zap.String("metric", name),
			zap.Error(err),
		)
	}
}

// NoopMetrics discards all metrics. Used in tests and local runs.
type NoopMetrics struct{}

// NewNoopMetrics creates a metrics publisher that discards everything.
func NewNoopMetrics() NoopMetrics {
	return NoopMetrics{}
}

func (NoopMetrics) Count(ctx context.Context, name string, value float64, dims map[string]string) {}
func (NoopMetrics) Timing(ctx context.Context, name string, d time.Duration, dims map[string]string) {
}
