package app

import (
	"context"

	"github.com/google/wire"
)

// AppComponents 用于收集 Wire 注入的所有组件
type AppComponents struct {
	Tasks   []Task
	Servers []Server
	Closers []Closer
}

// ProviderSet 导出给 Wire 使用
var ProviderSet = wire.NewSet(
	NewBaseApp,
)

// InitApp 将 Wire 注入的组件绑定到 BaseApp
func InitApp(app *BaseApp, comps AppComponents) Application {
	app.AppendTask(comps.Tasks...)
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// MapCloser 将实现了 Close() error 的对象转换为 Closer 接口
func MapCloser(c interface{ Close() error }) Closer {
	return closerWrapper{c}
}

// CloserFunc 将无返回值的关闭函数转换为 Closer（如 pgx 连接池）
type CloserFunc func()

func (f CloserFunc) Close() error {
	f()
	return nil
}

type closerWrapper struct {
	obj interface{ Close() error }
}

func (w closerWrapper) Close() error {
	return w.obj.Close()
}

// NewTask 用函数构造一个具名任务
func NewTask(name string, fn func(ctx context.Context) error) Task {
	return taskFunc{name: name, fn: fn}
}

type taskFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (t taskFunc) Name() string { return t.name }

func (t taskFunc) Run(ctx context.Context) error { return t.fn(ctx) }
