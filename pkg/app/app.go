package app

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

var (
	ErrAppAlreadyRunning = errors.New("application is already running")
	// ErrTaskTimeout 启动任务超过 TaskTimeout
	ErrTaskTimeout = errors.New("task timed out")
)

// Application 定义了框架级应用的接口
type Application interface {
	Run() error
	Shutdown() error
	AppLogger() logger.Logger
}

// Task 定义了启动阶段按顺序执行的一次性任务（如建表、导入种子数据）
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Server 定义了常驻服务接口（如指标导出）
type Server interface {
	Start() error
	Stop() error
}

// Closer 定义了资源清理接口（如 Redis, DB）
type Closer interface {
	Close() error
}

// BaseApp 提供了 Application 接口的基础实现
type BaseApp struct {
	opts    Options
	logger  logger.Logger
	tasks   []Task
	servers []Server
	closers []Closer

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex

	// 状态管理
	started atomic.Bool
	closed  atomic.Bool
}

// NewBaseApp 创建一个新的 BaseApp 实例
func NewBaseApp(opts ...Option) *BaseApp {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &BaseApp{
		opts:   o,
		logger: logger.OrNoop(o.Logger).Named(o.Name),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AppLogger 获取应用主日志对象
func (a *BaseApp) AppLogger() logger.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// Run 执行启动任务，启动服务并阻塞到收到退出信号
// 没有注册任何服务时，任务完成后直接退出
func (a *BaseApp) Run() error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAppAlreadyRunning
	}

	info := GetInfo()
	// 1. 打印版本字符串
	fmt.Println(info.String())

	// 2. 结构化日志记录启动参数
	a.logger.Info("application starting",
		"name", a.opts.Name,
		"version", a.opts.Version,
		"commit", info.GitCommit,
		"go_version", info.GoVersion,
		"id", a.opts.ID,
	)

	ctx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 顺序执行启动任务
	a.mu.RLock()
	tasks := append([]Task(nil), a.tasks...)
	servers := append([]Server(nil), a.servers...)
	a.mu.RUnlock()

	for _, task := range tasks {
		start := time.Now()
		if err := a.runTask(ctx, task); err != nil {
			a.logger.Error("task failed", "task", task.Name(), "error", err)
			return errors.CombineErrors(errors.Wrapf(err, "task %s", task.Name()), a.Shutdown())
		}
		a.logger.Info("task finished", "task", task.Name(), "elapsed", time.Since(start).String())
	}

	if len(servers) == 0 {
		return a.Shutdown()
	}

	// 4. 启动所有服务
	for _, srv := range servers {
		if err := srv.Start(); err != nil {
			a.logger.Error("failed to start server", "error", err)
			return errors.CombineErrors(err, a.Shutdown())
		}
	}

	// 5. 等待退出信号
	<-ctx.Done()
	a.logger.Info("shutdown requested", "cause", context.Cause(ctx))
	return a.Shutdown()
}

// runTask 执行单个任务，超时后取消任务的 ctx
func (a *BaseApp) runTask(ctx context.Context, task Task) error {
	if a.opts.TaskTimeout <= 0 {
		return task.Run(ctx)
	}
	ctx, cancel := context.WithTimeoutCause(ctx, a.opts.TaskTimeout, ErrTaskTimeout)
	defer cancel()
	if err := task.Run(ctx); err != nil {
		if errors.Is(context.Cause(ctx), ErrTaskTimeout) {
			return errors.Mark(err, ErrTaskTimeout)
		}
		return err
	}
	return nil
}

// Shutdown 停止应用程序并清理资源
func (a *BaseApp) Shutdown() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancel()
	a.logger.Info("application shutting down")

	var (
		wg      sync.WaitGroup
		errMu   sync.Mutex
		stopErr error
	)
	// 并发停止所有服务
	for _, srv := range a.servers {
		wg.Add(1)
		go func(s Server) {
			defer wg.Done()
			if err := s.Stop(); err != nil {
				a.logger.Error("failed to stop server", "error", err)
				errMu.Lock()
				stopErr = errors.CombineErrors(stopErr, err)
				errMu.Unlock()
			}
		}(srv)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(a.opts.StopTimeout):
		a.logger.Warn("shutdown timeout, forcing exit")
	}

	errMu.Lock()
	err := stopErr
	errMu.Unlock()

	// 逆序关闭所有 Closer 组件（LIFO）
	for i := len(a.closers) - 1; i >= 0; i-- {
		if cerr := a.closers[i].Close(); cerr != nil {
			a.logger.Error("failed to close component", "error", cerr)
			err = errors.CombineErrors(err, cerr)
		}
	}

	a.logger.Info("application exited")
	_ = a.logger.Sync()
	return err
}

// AppendTask 添加启动任务
func (a *BaseApp) AppendTask(task ...Task) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks = append(a.tasks, task...)
}

// AppendServer 添加服务器
func (a *BaseApp) AppendServer(srv ...Server) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.servers = append(a.servers, srv...)
}

// AppendCloser 添加资源清理组件
func (a *BaseApp) AppendCloser(closer ...Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, closer...)
}
