// Package app 提供应用生命周期管理
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SagarBarate/CleanNFT-sub001/internal/cache"
	"github.com/SagarBarate/CleanNFT-sub001/internal/config"
	"github.com/SagarBarate/CleanNFT-sub001/internal/handler"
	"github.com/SagarBarate/CleanNFT-sub001/internal/jobs"
	"github.com/SagarBarate/CleanNFT-sub001/internal/middleware"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/internal/router"
	"github.com/SagarBarate/CleanNFT-sub001/internal/scheduler"
	"github.com/SagarBarate/CleanNFT-sub001/internal/service"
	"github.com/SagarBarate/CleanNFT-sub001/internal/settlement"
	"github.com/SagarBarate/CleanNFT-sub001/internal/worker"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/nonce"
)

// App 应用实例
type App struct {
	cfg *config.Config

	// 基础设施
	db  *gorm.DB
	rdb *redis.Client

	// HTTP
	httpServer    *http.Server
	healthHandler *handler.HealthHandler

	// 结算
	gateway   settlement.Gateway
	processor *worker.OutboxProcessor

	// 定时任务
	sched *scheduler.Scheduler

	// 服务层
	authSvc  service.AuthService
	wasteSvc service.WasteService
	pointSvc service.PointService
	nftSvc   service.NftService
	adminSvc service.AdminService

	// 仓储层
	userRepo    repository.UserRepository
	stationRepo repository.StationRepository
	wasteRepo   repository.WasteRepository
	pointRepo   repository.PointRepository
	nftRepo     repository.NftRepository
	outboxRepo  repository.OutboxRepository
	txRepo      repository.TxRepository

	// 缓存层
	balanceCache *cache.BalanceCache

	ctx    context.Context
	cancel context.CancelFunc
}

// New 创建应用实例
func New(cfg *config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run 启动应用
func (a *App) Run() error {
	logger.Info("starting service", "service", a.cfg.Service.Name)

	if err := a.initInfra(); err != nil {
		return fmt.Errorf("init infra: %w", err)
	}
	a.initRepositories()
	a.initServices()
	if err := a.initSettlement(); err != nil {
		return fmt.Errorf("init settlement: %w", err)
	}
	if err := a.initScheduler(); err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	a.processor.Start(a.ctx)
	a.sched.Start()
	a.startHTTPServer()
	a.healthHandler.SetReady(true)

	a.waitForShutdown()
	return nil
}

// initInfra 初始化数据库与 Redis
func (a *App) initInfra() error {
	gormLogLevel := gormlogger.Warn
	if a.cfg.Service.IsDev() {
		gormLogLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(a.cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(a.cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(a.cfg.Database.ConnMaxLifetimeMinutes) * time.Minute)
	a.db = db

	if err := AutoMigrate(a.db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("database migrated")

	a.rdb = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr(),
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		PoolSize: a.cfg.Redis.PoolSize,
	})
	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := a.rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}

// initRepositories 初始化仓储层
func (a *App) initRepositories() {
	a.userRepo = repository.NewUserRepository(a.db)
	a.stationRepo = repository.NewStationRepository(a.db)
	a.wasteRepo = repository.NewWasteRepository(a.db)
	a.pointRepo = repository.NewPointRepository(a.db)
	a.nftRepo = repository.NewNftRepository(a.db)
	a.outboxRepo = repository.NewOutboxRepository(a.db)
	a.txRepo = repository.NewTxRepository(a.db)

	a.balanceCache = cache.NewBalanceCache(a.rdb, logger.L(), cache.DefaultBalanceTTL)
}

// initServices 初始化服务层
func (a *App) initServices() {
	a.authSvc = service.NewAuthService(a.userRepo, a.cfg.Auth)
	a.wasteSvc = service.NewWasteService(
		a.wasteRepo, a.pointRepo, a.outboxRepo, a.stationRepo,
		a.balanceCache, nonce.NewDeriver(nonce.Mode(a.cfg.Waste.NonceMode)), a.cfg.Waste,
	)
	a.pointSvc = service.NewPointService(a.pointRepo, a.userRepo, a.balanceCache)
	a.nftSvc = service.NewNftService(a.nftRepo, a.outboxRepo, a.userRepo)
	a.adminSvc = service.NewAdminService(a.txRepo, a.outboxRepo, a.stationRepo, a.userRepo)
}

// initSettlement 初始化结算网关与 outbox 处理器
func (a *App) initSettlement() error {
	switch a.cfg.Settlement.Mode {
	case "ethereum":
		gw, err := settlement.NewEthereumGateway(a.ctx, &settlement.EthereumConfig{
			RPCURL:          a.cfg.Settlement.RPCURL,
			PrivateKey:      a.cfg.Settlement.PrivateKey,
			ContractAddress: a.cfg.Settlement.ContractAddr,
		})
		if err != nil {
			return err
		}
		a.gateway = gw
	default:
		a.gateway = settlement.NewSimulatedGateway(0)
	}
	logger.Info("settlement gateway initialized", "network", a.gateway.Network())

	a.processor = worker.NewOutboxProcessor(a.outboxRepo, a.txRepo, a.nftSvc, a.gateway,
		worker.OutboxProcessorConfig{
			PollInterval: a.cfg.Outbox.PollInterval(),
			BatchSize:    a.cfg.Outbox.BatchSize,
			EventTimeout: a.cfg.Outbox.EventTimeout(),
		})
	return nil
}

// initScheduler 初始化定时任务
func (a *App) initScheduler() error {
	a.sched = scheduler.NewScheduler(cache.NewJobLock(a.rdb, logger.L()))

	if err := a.sched.RegisterJob(jobs.NewSessionCleanupJob(a.userRepo, a.cfg.Jobs.SessionCleanupCron)); err != nil {
		return err
	}
	return a.sched.RegisterJob(jobs.NewHealthMonitorJob(
		a.stationRepo, a.cfg.Jobs.HealthMonitorCron, a.cfg.Jobs.DeviceOfflineAfterMin))
}

// startHTTPServer 启动 HTTP 服务器
func (a *App) startHTTPServer() {
	if !a.cfg.Service.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	a.healthHandler = handler.NewHealthHandler(a.db, a.rdb)
	authMW := middleware.NewAuthMiddleware(a.authSvc)
	router.Register(engine, authMW, &router.Handlers{
		Health: a.healthHandler,
		Auth:   handler.NewAuthHandler(a.authSvc),
		Waste:  handler.NewWasteHandler(a.wasteSvc),
		Point:  handler.NewPointHandler(a.pointSvc),
		Nft:    handler.NewNftHandler(a.nftSvc),
		Admin:  handler.NewAdminHandler(a.adminSvc, a.pointSvc, a.nftSvc),
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Service.HTTPPort),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "port", a.cfg.Service.HTTPPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", "error", err)
		}
	}()
}

// waitForShutdown 等待关闭信号
func (a *App) waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	a.shutdown()
}

// shutdown 优雅关闭: 先摘流量，再停后台任务，最后断开基础设施
func (a *App) shutdown() {
	a.healthHandler.SetReady(false)
	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	a.sched.Stop()
	a.processor.Stop()

	if eth, ok := a.gateway.(*settlement.EthereumGateway); ok {
		eth.Close()
	}
	if err := a.rdb.Close(); err != nil {
		logger.Error("close redis error", "error", err)
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("close database error", "error", err)
		}
	}

	logger.Info("service stopped")
}
