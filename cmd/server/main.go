package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/semenovm/ucp-checkout/internal/agent"
	"github.com/semenovm/ucp-checkout/internal/api"
	"github.com/semenovm/ucp-checkout/internal/catalog"
	"github.com/semenovm/ucp-checkout/internal/checkout"
	"github.com/semenovm/ucp-checkout/internal/customer"
	"github.com/semenovm/ucp-checkout/internal/discovery"
	"github.com/semenovm/ucp-checkout/internal/idempotency"
	"github.com/semenovm/ucp-checkout/internal/metrics"
	"github.com/semenovm/ucp-checkout/internal/order"
	"github.com/semenovm/ucp-checkout/internal/order/repository"
	"github.com/semenovm/ucp-checkout/internal/payment"
	"github.com/semenovm/ucp-checkout/internal/pricing"
	"github.com/semenovm/ucp-checkout/internal/webhook"
)

type Config struct {
	HTTPPort         string
	BaseURL          string
	SimulationSecret string
	RequestTimeout   time.Duration

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	MigrationsPath string
}

func loadConfig() Config {
	cfg := Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		SimulationSecret: getEnv("SIMULATION_SECRET", "test-secret"),
		RequestTimeout:   60 * time.Second,
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "order-events"),
		DBHost:           getEnv("DB_HOST", ""),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "ucp"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "migrations"),
	}
	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:"+cfg.HTTPPort)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	cfg := loadConfig()

	cat := catalog.NewSeededStore()
	directory := customer.NewSeededDirectory()
	pricer := pricing.NewEngine()
	payments := payment.NewRegistry()

	var idemStore idempotency.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("connecting to redis at %s: %v", cfg.RedisAddr, err)
		}
		idemStore = idempotency.NewRedisStore(client)
		log.Printf("idempotency store: redis at %s", cfg.RedisAddr)
	} else {
		idemStore = idempotency.NewMemoryStore()
		log.Printf("idempotency store: in-memory")
	}

	var orderRepo repository.OrderRepository
	if cfg.DBHost != "" {
		creds := repository.Credentials{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		}
		repo, err := repository.NewPostgresRepository(creds, cfg.MigrationsPath)
		if err != nil {
			log.Fatalf("connecting to orders database: %v", err)
		}
		orderRepo = repo
		log.Printf("order store: postgres at %s:%s", cfg.DBHost, cfg.DBPort)
	} else {
		orderRepo = repository.NewMemoryRepository()
		log.Printf("order store: in-memory")
	}
	defer orderRepo.Close()

	var sink webhook.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := webhook.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Printf("order events mirrored to kafka topic %s", cfg.KafkaTopic)
	}

	resolver := agent.NewResolver()
	dispatcher := webhook.NewDispatcher(resolver, sink)

	orderSvc := order.NewService(orderRepo, dispatcher, cfg.BaseURL)
	checkoutSvc := checkout.NewService(cat, directory, pricer, payments, orderSvc)

	promRegistry := prometheus.NewRegistry()
	serverMetrics := metrics.NewServerMetrics(promRegistry)

	router := api.NewRouter(api.RouterConfig{
		Checkout:         api.NewCheckoutHandler(checkoutSvc),
		Orders:           api.NewOrderHandler(orderSvc),
		Discovery:        discovery.Build(cfg.BaseURL, payments),
		IdempotencyStore: idemStore,
		Metrics:          serverMetrics,
		Registry:         promRegistry,
		SimulationSecret: cfg.SimulationSecret,
		RequestTimeout:   cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := dispatcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server stopped")
}
