package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voucher-go/internal/config"
	"voucher-go/internal/handlers/apiserver"
	"voucher-go/internal/imtypes"
	appKafka "voucher-go/internal/kafka"
	"voucher-go/internal/logger"
	"voucher-go/internal/middleware"
	"voucher-go/internal/services"
	"voucher-go/internal/storage"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("VOUCHER_CONFIG"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	defer zlog.Sync()
	zlog.Info("API 服务器配置加载成功", zap.String("app", cfg.AppName), zap.String("version", cfg.AppVersion))

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		zlog.Fatal("无法初始化数据库", zap.Error(err))
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		zlog.Fatal("数据库表迁移失败", zap.Error(err))
	}

	// 3. 初始化 Kafka Producer
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka, zlog)
	if err != nil {
		zlog.Fatal("无法创建 Kafka 生产者", zap.Error(err))
	}
	defer kfkProducer.Close()

	// 4. 初始化存储服务
	var (
		imageStore imtypes.VoucherImageStore
		staticDir  string
	)
	switch cfg.Storage.Type {
	case "local":
		imageStore = storage.NewLocalVoucherImageStore(cfg.Storage)
		staticDir = cfg.Storage.LocalPath
	case "s3":
		imageStore, err = storage.NewS3VoucherImageStore(context.Background(), cfg.Storage, zlog)
		if err != nil {
			zlog.Fatal("无法初始化 S3 存储服务", zap.Error(err))
		}
	default:
		zlog.Fatal("不支持的存储类型", zap.String("type", cfg.Storage.Type))
	}
	zlog.Info("存储服务初始化成功", zap.String("type", cfg.Storage.Type))

	// 5. 初始化 Services
	authService := services.NewMockAuthService(cfg.Auth)
	contactService := services.NewContactService(kfkProducer, cfg.Kafka.ContactEmailTopic, cfg.Mail, zlog)
	completionService := services.NewCompletionService(storage.NewGormCompletionRepository(db))

	// 6. 设置 HTTP 路由
	router := apiserver.NewRouter(apiserver.Routes{
		Upload:          apiserver.NewUploadHandler(imageStore, cfg.Storage, zlog),
		Auth:            apiserver.NewAuthHandler(authService),
		Contact:         apiserver.NewContactHandler(contactService, zlog),
		Completion:      apiserver.NewCompletionHandler(completionService, zlog),
		StaticDir:       staticDir,
		StaticURLPrefix: cfg.Storage.PublicURLPrefix,
	})
	router.Use(middleware.RequestLogger(zlog))

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}

	// 7. 启动 HTTP 服务器并实现优雅关闭
	srv := &http.Server{
		Addr:         cfg.APIServer.Addr(),
		Handler:      handlers.CORS(corsOptions...)(router),
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("API 服务器启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("API 服务器启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zlog.Error("API 服务器强制关闭", zap.Error(err))
	}

	// 等待进行中的联系邮件投递，再关闭 producer (defer)
	contactService.Wait()
	zlog.Info("API 服务器已成功关闭")
}
