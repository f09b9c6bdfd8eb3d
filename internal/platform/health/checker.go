package health

import (
	"context"
	"time"

	"github.com/SlpAus/contact-form-backend/internal/platform/database"
	"github.com/SlpAus/contact-form-backend/pkg/lifecycle"
	"github.com/SlpAus/contact-form-backend/pkg/logger"
)

const pingTimeout = 3 * time.Second

// Pinger 是探测所需的最小能力，*gorm.DB 通过 PingFunc 适配。
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 把普通函数适配为 Pinger。
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// PerformCheck 执行一次探测并更新状态。
func PerformCheck(ctx context.Context, p Pinger, status *database.Status) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := p.Ping(ctx)
	status.Update(err)
	return err
}

// ReadyFunc 在数据库第一次探测成功后执行（例如建表）。返回错误时会在下一次探测成功后重试。
type ReadyFunc func(ctx context.Context) error

// StartChecker 在后台运行：先立即探测一次（即启动探测），之后按 interval 周期探测。
// 探测结果只记录日志和状态，不会阻塞请求处理，也不会中止进程。
// interval <= 0 时只执行启动探测。onReady 可以为 nil。
func StartChecker(handle *lifecycle.Handle, p Pinger, status *database.Status, interval time.Duration, onReady ReadyFunc) {
	defer handle.Close()

	ready := onReady == nil
	check := func() error {
		err := PerformCheck(handle.Ctx(), p, status)
		if err == nil && !ready {
			if rerr := onReady(handle.Ctx()); rerr != nil {
				logger.Error("数据库就绪后的初始化失败，将在下次探测后重试: %v", rerr)
			} else {
				ready = true
			}
		}
		return err
	}

	logger.Info("启动探测: 正在检查数据库连通性...")
	if err := check(); err != nil {
		logger.Error("启动探测: 数据库不可达，服务将继续运行: %v", err)
	} else {
		logger.Success("启动探测: 数据库连接正常")
	}

	if interval <= 0 {
		return
	}

	for {
		if err := handle.Sleep(interval); err != nil {
			logger.Info("健康检查器: 收到停机信号，正在退出")
			return
		}
		_ = check()
	}
}
