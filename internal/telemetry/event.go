// Package telemetry 负责把请求耗时、请求数和错误数异步上报到指标后端。
// 上报失败只记录日志，永远不会影响HTTP响应。
package telemetry

import (
	"context"
	"time"
)

// Unit 的取值与 CloudWatch StandardUnit 一致。
type Unit string

const (
	UnitMilliseconds Unit = "Milliseconds"
	UnitCount        Unit = "Count"
)

const (
	MetricRequestDuration = "RequestDuration"
	MetricRequestCount    = "RequestCount"
	MetricErrorCount      = "ErrorCount"

	DimensionEndpoint  = "Endpoint"
	DimensionErrorType = "ErrorType"
)

// ErrorLabelUnknown 用于无法识别类型的 panic。
const ErrorLabelUnknown = "UnknownError"

// Event 是一条待上报的指标，不会被持久化。
type Event struct {
	Name           string
	Value          float64
	Unit           Unit
	DimensionKey   string
	DimensionValue string
	Namespace      string
	Timestamp      time.Time
}

// Recorder 是请求处理流程使用的上报接口。实现必须是非阻塞的。
type Recorder interface {
	RecordRequest(endpoint string, duration time.Duration)
	RecordError(label string)
}

// Sink 是指标后端。Put 可能阻塞，由 Emitter 的后台goroutine调用。
type Sink interface {
	Put(ctx context.Context, events []Event) error
}
