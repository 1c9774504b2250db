// Package main API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"book-creator-api/internal/application/book"
	"book-creator-api/internal/application/chat"
	"book-creator-api/internal/application/retrieval"
	"book-creator-api/internal/config"
	"book-creator-api/internal/infrastructure/embedding"
	"book-creator-api/internal/infrastructure/llm"
	"book-creator-api/internal/infrastructure/persistence/milvus"
	"book-creator-api/internal/infrastructure/persistence/postgres"
	"book-creator-api/internal/infrastructure/persistence/redis"
	"book-creator-api/internal/interfaces/http/handler"
	"book-creator-api/internal/interfaces/http/router"
	einoobs "book-creator-api/internal/observability/eino"
	"book-creator-api/pkg/logger"
	"book-creator-api/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting api-server",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 初始化 Eino 全局 callbacks（指标/追踪）
	einoobs.Init()

	// Postgres（必需）
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to connect postgres", err)
	}
	defer pgClient.Close()
	if err := pgClient.AutoMigrate(); err != nil {
		logger.Fatal(ctx, "failed to migrate database", err)
	}

	// Milvus（可选，缺失时向量功能降级）
	var milvusClient *milvus.Client
	var vectorRepo *milvus.Repository
	if cfg.Vector.Milvus.Host != "" {
		milvusClient, err = milvus.NewClient(ctx, &cfg.Vector.Milvus)
		if err != nil {
			log.Warn("milvus unavailable, vector features disabled", "error", err.Error())
		} else {
			defer milvusClient.Close()
			vectorRepo = milvus.NewRepository(milvusClient)
		}
	}

	// Embedder（可选，缺失时向量功能降级）
	embedder, err := embedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		log.Warn("embedder unavailable, vector features disabled", "error", err.Error())
		embedder = nil
	}

	// Redis（可选，缺失时限流直通）
	var redisClient *redis.Client
	if cfg.Cache.Redis.Host != "" {
		redisClient, err = redis.NewClient(&cfg.Cache.Redis)
		if err != nil {
			log.Warn("redis unavailable, rate limiting disabled", "error", err.Error())
		} else {
			defer redisClient.Close()
		}
	}

	// 仓储
	bookRepo := postgres.NewBookRepository(pgClient)
	chatRepo := postgres.NewChatMessageRepository(pgClient)

	// 检索
	var vectorPort retrieval.VectorRepository
	if vectorRepo != nil {
		vectorPort = vectorRepo
	}
	indexer := retrieval.NewIndexer(embedder, vectorPort, cfg.Embedding.BatchSize)
	retriever := retrieval.NewEngine(embedder, vectorPort)

	// 书籍生成
	ollamaClient := llm.NewOllamaClient(&cfg.LLM.Ollama)
	generator := book.NewChapterGenerator(ollamaClient, indexer, cfg.Generation.DocsPath)
	tracker := book.NewTracker()
	orchestrator := book.NewOrchestrator(bookRepo, generator, tracker, cfg.Generation.MaxConcurrent)

	// 问答
	llmFactory := llm.NewEinoFactory(cfg)
	chatEngine := chat.NewEngine(llmFactory, retriever, chatRepo)

	// HTTP 路由
	r := router.New(cfg, &router.Handlers{
		Health: handler.NewHealthHandler(pgClient, redisClient, milvusClient),
		Book:   handler.NewBookHandler(orchestrator),
		Chat:   handler.NewChatHandler(chatEngine),
	}, redisClient)

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
