package telemetry

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// PutMetricDataAPI 是 CloudWatchSink 用到的 cloudwatch.Client 方法子集。
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSink 把指标写入 Amazon CloudWatch。
type CloudWatchSink struct {
	client PutMetricDataAPI
}

func NewCloudWatchSink(client PutMetricDataAPI) *CloudWatchSink {
	return &CloudWatchSink{client: client}
}

// NewCloudWatchSinkFromConfig 用 aws.Config 构造真实客户端。
func NewCloudWatchSinkFromConfig(cfg aws.Config) *CloudWatchSink {
	return NewCloudWatchSink(cloudwatch.NewFromConfig(cfg))
}

// Put 按 namespace 分组，每组一次 PutMetricData 调用。
func (s *CloudWatchSink) Put(ctx context.Context, events []Event) error {
	grouped := make(map[string][]types.MetricDatum)
	var order []string
	for _, ev := range events {
		if _, ok := grouped[ev.Namespace]; !ok {
			order = append(order, ev.Namespace)
		}
		grouped[ev.Namespace] = append(grouped[ev.Namespace], toDatum(ev))
	}

	for _, ns := range order {
		_, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(ns),
			MetricData: grouped[ns],
		})
		if err != nil {
			return fmt.Errorf("cloudwatch PutMetricData (namespace=%s): %w", ns, err)
		}
	}
	return nil
}

func toDatum(ev Event) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(ev.Name),
		Value:      aws.Float64(ev.Value),
		Unit:       types.StandardUnit(ev.Unit),
		Timestamp:  aws.Time(ev.Timestamp),
		Dimensions: []types.Dimension{
			{Name: aws.String(ev.DimensionKey), Value: aws.String(ev.DimensionValue)},
		},
	}
}
