package shutdown

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/contact-form-backend/pkg/lifecycle"
	"github.com/SlpAus/contact-form-backend/pkg/logger"
)

const (
	defaultHTTPTimeout     = 15 * time.Second
	defaultGracefulTimeout = 10 * time.Second
	forcefulTimeout        = 1 * time.Second
)

// Coordinator 负责编排应用程序的优雅停机流程。
// 它接收外部创建的生命周期管理器，并使用它们来协调停机。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager
	// HTTPTimeout 是等待进行中的请求完成的时间
	HTTPTimeout time.Duration
	// GracefulTimeout 是第一阶段等待后台服务（如指标队列排空）的时间
	GracefulTimeout time.Duration

	closers []namedCloser
}

type namedCloser struct {
	name string
	fn   func() error
}

// NewCoordinator 创建一个新的停机协调器。
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
		HTTPTimeout:     defaultHTTPTimeout,
		GracefulTimeout: defaultGracefulTimeout,
	}
}

// OnClose 注册在所有后台服务退出后执行的清理动作（例如关闭数据库连接池），按注册的逆序执行。
func (c *Coordinator) OnClose(name string, fn func() error) {
	c.closers = append(c.closers, namedCloser{name: name, fn: fn})
}

// ListenForSignalsAndShutdown 启动信号监听并阻塞，直到停机流程完成。
// 如果服务器自身退出（例如端口被占用），也会进入停机流程。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server, serverErr <-chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("收到关闭信号 (%v)，开始优雅停机...", sig)
	case err := <-serverErr:
		logger.Error("HTTP服务器异常退出: %v", err)
	}

	c.Shutdown(server)
}

// Shutdown 依次关闭HTTP服务器、后台服务和底层资源。
func (c *Coordinator) Shutdown(server *http.Server) {
	// 关闭HTTP服务器，允许正在进行的请求完成
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.HTTPTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Gin服务器关闭错误: %v", err)
	} else {
		logger.Info("Gin服务器已关闭。")
	}

	// --- 阶段一: 优雅停机 ---
	logger.Info("第一阶段停机：等待最多 %v 以完成任务...", c.GracefulTimeout)
	c.GracefulManager.Shutdown()

	remaining := c.GracefulManager.WaitWithTimeout(c.GracefulTimeout)
	if len(remaining) == 0 {
		logger.Info("所有服务已在第一阶段优雅关闭。")
	} else {
		// --- 阶段二: 强制停机 ---
		logger.Warn("第一阶段超时，仍在运行: %v。发送第二停机信号 (最多等待 %v)...", remaining, forcefulTimeout)
		c.ForcefulManager.Shutdown()
		if left := c.ForcefulManager.WaitWithTimeout(forcefulTimeout); len(left) > 0 {
			logger.Warn("以下服务未能及时退出: %v", left)
		}
	}
	// 第二阶段的句柄在第一阶段正常结束时也需要释放
	c.ForcefulManager.Shutdown()

	// --- 最终步骤 ---
	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.fn(); err != nil {
			logger.Error("关闭 %s 失败: %v", cl.name, err)
		} else {
			logger.Info("%s 已关闭。", cl.name)
		}
	}

	logger.Success("优雅停机完成。")
}
