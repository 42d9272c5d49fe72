//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/seed"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
	"github.com/lk2023060901/xdooria-artifact/pkg/app"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

func InitApp(cfg *Config, l logger.Logger) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		provideAppOptions,
		app.ProviderSet,

		// 2. 时钟与主键
		provideClock,
		provideIDGenerator,
		store.NewArtifactTables,

		// 3. 指标
		providePrometheus,
		provideMetrics,
		provideSentry,
		provideTracer,

		// 4. 存储（驱动 + 可选缓存）
		provideBackend,
		provideStore,

		// 5. 工厂与同步器
		provideFactoryContext,
		provideSyncer,
		seed.New,

		// 6. 组装
		provideAppComponents,
		app.InitApp,
	))
}
