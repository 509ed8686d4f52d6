package main

import (
	"context"

	"go.uber.org/zap"

	_ "stamp-core/docs/swagger"
	"stamp-core/internal/bootstrap"
	"stamp-core/internal/handler"
	"stamp-core/internal/server"
	"stamp-core/internal/service/psbt"
	"stamp-core/pkg/config"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/validator"
)

// @title Stamp Core API
// @version 1.0
// @description Bitcoin Stamps transaction construction and fee estimation

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
func main() {
	// 0. 初始化 Config
	config.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env, config.Global.App.LogLevel)
	defer logger.Sync()

	validator.Init()

	network, err := bootstrap.Network()
	if err != nil {
		logger.Fatal("网络配置错误", zap.Error(err))
	}

	// 2. 连接 Redis (可选)
	ctx := context.Background()
	rdb, err := bootstrap.Redis(ctx)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}
	sharedCache := bootstrap.Cache(rdb)

	// 3. UTXO 数据源
	provider, closeProvider, err := bootstrap.UTXOProvider(network)
	if err != nil {
		logger.Fatal("初始化 UTXO Provider 失败", zap.Error(err))
	}

	// 4. 行情服务 + 后台预热
	marketService := bootstrap.Market(sharedCache)
	feeWarmer := bootstrap.Warmer(marketService, rdb)
	if err := feeWarmer.Start(); err != nil {
		logger.Fatal("启动预热任务失败", zap.Error(err))
	}
	go func() {
		if err := feeWarmer.ForceWarm(ctx); err != nil {
			logger.Warn("首次预热失败", zap.Error(err))
		}
	}()

	// 5. 消息队列 (PSBT 交接事件)
	producer, err := bootstrap.Producer(rdb)
	if err != nil {
		logger.Fatal("初始化消息队列失败", zap.Error(err))
	}

	// 6. 铸造服务与估算器
	mintService := bootstrap.MintService(provider, network, psbt.WithProducer(producer, config.Global.MQ.Topic))
	est := bootstrap.Estimator(network, marketService, provider, sharedCache, mintService)

	// 7. HTTP Router
	r := server.NewHTTPRouter(server.Handlers{
		Health:   handler.Health(network, feeWarmer),
		Market:   handler.NewMarketHandler(marketService, feeWarmer),
		Cip33:    handler.NewCip33Handler(network),
		Estimate: handler.NewEstimateHandler(est),
		PSBT:     handler.NewPSBTHandler(mintService),
	})

	// 8. 启动应用 (阻塞)，退出时按顺序清理
	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, r,
		feeWarmer.Stop,
		func() {
			if err := producer.Close(); err != nil {
				logger.Error("关闭消息队列失败", zap.Error(err))
			}
		},
		closeProvider,
		func() {
			if rdb != nil {
				_ = rdb.Close()
			}
		},
	)
	app.Run()
	logger.Info("系统已退出")
}
