package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/invoice-dashboard/internal/adapter/handler"
	"github.com/rl1809/invoice-dashboard/internal/adapter/identity"
	"github.com/rl1809/invoice-dashboard/internal/adapter/storage"
	"github.com/rl1809/invoice-dashboard/internal/config"
	"github.com/rl1809/invoice-dashboard/internal/core/service"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize SQL store
	dialect, err := storage.ParseDialect(cfg.Database.Driver)
	if err != nil {
		log.Fatalf("invalid database driver: %v", err)
	}
	db, err := sql.Open(dialect.DriverName(), cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to open %s: %v", dialect, err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping %s: %v", dialect, err)
	}
	log.Printf("connected to %s", dialect)

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters
	sqlAdapter := storage.NewSQLAdapter(db, dialect)
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.ViewCacheTTL)

	tokens, err := identity.NewTokenManager(cfg.Auth.Secret, cfg.Auth.SessionTTL)
	if err != nil {
		log.Fatalf("failed to init session tokens: %v", err)
	}
	provider := identity.NewCredentialsProvider(sqlAdapter, tokens)

	// Initialize services
	invoiceService := service.NewInvoiceService(sqlAdapter, sqlAdapter, redisAdapter)
	authService := service.NewAuthService(provider, identity.Classifier{})

	// Initialize gRPC health server
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"sql":   sqlAdapter,
		"redis": redisAdapter,
	}, 10*time.Second)
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthHandler.Server)

	healthCtx, stopHealth := context.WithCancel(ctx)
	healthDone := make(chan struct{})
	go func() {
		healthHandler.Run(healthCtx)
		close(healthDone)
	}()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(invoiceService, authService, cfg.Auth.SecureCookie)
	router := handler.NewRouter(httpHandler, tokens)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      c.Handler(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	// Report NOT_SERVING before draining
	stopHealth()
	<-healthDone

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("HTTP server stopped")

	// Stop gRPC server
	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")

	// Close connections
	rdb.Close()
	db.Close()
	log.Println("connections closed")
}
