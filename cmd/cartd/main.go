package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/api"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/catalog"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/coupon"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/engine"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/events"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/pricing"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/snapshot"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	HTTPPort        string
	CatalogFile     string
	DiscountsFile   string
	CartID          string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    string
	KafkaTopic      string
	ProfileMap      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CatalogFile:     getEnv("CATALOG_FILE", "catalog.json"),
		DiscountsFile:   getEnv("DISCOUNTS_FILE", ""),
		CartID:          getEnv("CART_ID", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "cart-events"),
		ProfileMap:      getEnv("PROFILE_MAP", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Loaded catalog from %s", cfg.CatalogFile)

	rules := coupon.NewStaticRules(nil)
	if cfg.DiscountsFile != "" {
		rules, err = loadDiscounts(cfg.DiscountsFile)
		if err != nil {
			log.Fatalf("Failed to load discounts: %v", err)
		}
		log.Printf("Loaded discounts from %s", cfg.DiscountsFile)
	}

	var store snapshot.Store = snapshot.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Printf("Redis ping succeeded")
		store = snapshot.NewRedisStore(redisClient)
	}

	bus := events.NewBus()
	if cfg.KafkaBrokers != "" {
		sink := events.NewKafkaSink(cfg.KafkaTopic, strings.Split(cfg.KafkaBrokers, ",")...)
		defer sink.Close()
		bus.Subscribe(sink.Handle)
		log.Printf("Forwarding cart events to kafka topic %s", cfg.KafkaTopic)
	}

	cartID := uuid.Nil
	if cfg.CartID != "" {
		cartID, err = uuid.Parse(cfg.CartID)
		if err != nil {
			log.Fatalf("Invalid CART_ID: %v", err)
		}
	}

	eng := engine.New(engine.Config{
		CartID:          cartID,
		Catalog:         catalog.NewCachedLookup(cat, 5*time.Minute),
		Remapper:        catalog.NewProfileRemapper(parseProfileMap(cfg.ProfileMap)),
		ShippingMethods: cat,
		Rules:           rules,
		Store:           store,
		Bus:             bus,
		Formatter:       pricing.NewUSDFormatter(),
	})
	eng.Load(ctx)
	log.Printf("Cart %s ready", eng.CartID())

	cartHandler := api.NewCartHandler(eng)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/api/v1", func(r chi.Router) {
		cartHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Cart daemon listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down cart daemon...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("cart daemon stopped")
}

// parseProfileMap parses "5:7,6:8" into a remapping table.
func parseProfileMap(raw string) map[int]int {
	if raw == "" {
		return nil
	}
	mapping := make(map[int]int)
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			log.Printf("ignoring malformed profile mapping %q", pair)
			continue
		}
		from, err1 := strconv.Atoi(parts[0])
		to, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			log.Printf("ignoring malformed profile mapping %q", pair)
			continue
		}
		mapping[from] = to
	}
	return mapping
}

func loadDiscounts(path string) (*coupon.StaticRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules map[string]domain.DiscountDefinition
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return coupon.NewStaticRules(rules), nil
}
