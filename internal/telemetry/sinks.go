package telemetry

import (
	"context"

	"github.com/SlpAus/contact-form-backend/pkg/logger"
)

// LogSink 把指标打印到本地日志，用于开发环境。
type LogSink struct{}

func (LogSink) Put(_ context.Context, events []Event) error {
	for _, ev := range events {
		logger.Info("指标 %s/%s{%s=%s} %.2f %s",
			ev.Namespace, ev.Name, ev.DimensionKey, ev.DimensionValue, ev.Value, ev.Unit)
	}
	return nil
}

// NopSink 丢弃所有指标。
type NopSink struct{}

func (NopSink) Put(context.Context, []Event) error { return nil }
