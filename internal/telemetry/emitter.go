package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/SlpAus/contact-form-backend/pkg/lifecycle"
	"github.com/SlpAus/contact-form-backend/pkg/logger"
)

// maxBatch 是 CloudWatch PutMetricData 单次请求允许的最大条数。
const maxBatch = 20

// Emitter 把指标放入有界队列，由 Run 在后台批量写入 Sink。
type Emitter struct {
	sink         Sink
	namespace    string
	queue        chan Event
	flushTimeout time.Duration
	now          func() time.Time

	dropped atomic.Int64
	failed  atomic.Int64
}

// NewEmitter 创建一个 Emitter。必须在另一个goroutine中调用 Run 才会真正上报。
func NewEmitter(sink Sink, namespace string, queueSize int, flushTimeout time.Duration) *Emitter {
	if queueSize <= 0 {
		queueSize = 1
	}
	if flushTimeout <= 0 {
		flushTimeout = 5 * time.Second
	}
	return &Emitter{
		sink:         sink,
		namespace:    namespace,
		queue:        make(chan Event, queueSize),
		flushTimeout: flushTimeout,
		now:          time.Now,
	}
}

// RecordRequest 记录一次已完成的请求：耗时（毫秒）和计数各一条，维度为请求路径。
func (e *Emitter) RecordRequest(endpoint string, duration time.Duration) {
	ts := e.now()
	e.enqueue(Event{
		Name:           MetricRequestDuration,
		Value:          float64(duration) / float64(time.Millisecond),
		Unit:           UnitMilliseconds,
		DimensionKey:   DimensionEndpoint,
		DimensionValue: endpoint,
		Namespace:      e.namespace,
		Timestamp:      ts,
	})
	e.enqueue(Event{
		Name:           MetricRequestCount,
		Value:          1,
		Unit:           UnitCount,
		DimensionKey:   DimensionEndpoint,
		DimensionValue: endpoint,
		Namespace:      e.namespace,
		Timestamp:      ts,
	})
}

// RecordError 记录一次被捕获的错误，维度为错误类别标签。
func (e *Emitter) RecordError(label string) {
	e.enqueue(Event{
		Name:           MetricErrorCount,
		Value:          1,
		Unit:           UnitCount,
		DimensionKey:   DimensionErrorType,
		DimensionValue: label,
		Namespace:      e.namespace,
		Timestamp:      e.now(),
	})
}

// Dropped 返回因队列已满而被丢弃的指标数。
func (e *Emitter) Dropped() int64 { return e.dropped.Load() }

// Failed 返回写入 Sink 失败的指标数。
func (e *Emitter) Failed() int64 { return e.failed.Load() }

func (e *Emitter) enqueue(ev Event) {
	select {
	case e.queue <- ev:
	default:
		n := e.dropped.Add(1)
		if n == 1 || n%100 == 0 {
			logger.Warn("指标队列已满，已丢弃 %d 条指标 (最近一条: %s)", n, ev.Name)
		}
	}
}

// Run 是后台上报循环。
// 收到第一阶段停机信号后，把队列中剩余的指标全部发出再退出；
// 收到第二阶段停机信号时，正在进行的写入会被取消。
func (e *Emitter) Run(graceful, forceful *lifecycle.Handle) {
	defer graceful.Close()
	defer forceful.Close()

	logger.Info("指标上报器已启动 (namespace=%s)", e.namespace)
	for {
		select {
		case ev := <-e.queue:
			e.flush(forceful.Ctx(), e.collect(ev))
		case <-graceful.Done():
			e.drain(forceful.Ctx())
			logger.Info("指标上报器已退出 (丢弃 %d 条, 失败 %d 条)", e.Dropped(), e.Failed())
			return
		}
	}
}

// collect 在不阻塞的前提下凑满一个批次。
func (e *Emitter) collect(first Event) []Event {
	batch := make([]Event, 1, maxBatch)
	batch[0] = first
	for len(batch) < maxBatch {
		select {
		case ev := <-e.queue:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

func (e *Emitter) drain(ctx context.Context) {
	for {
		select {
		case ev := <-e.queue:
			e.flush(ctx, e.collect(ev))
		default:
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (e *Emitter) flush(parent context.Context, batch []Event) {
	ctx, cancel := context.WithTimeout(parent, e.flushTimeout)
	defer cancel()

	if err := e.sink.Put(ctx, batch); err != nil {
		e.failed.Add(int64(len(batch)))
		logger.Error("指标上报失败 (%d 条): %v", len(batch), err)
	}
}
