package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Cart storage backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	JWTSecret     string
	AllowedOrigin string
	AdminAPIKey   string

	// Pricing rules
	TaxRate         decimal.Decimal // fraction of subtotal, e.g. 0.1
	ShippingCost    decimal.Decimal // flat fee per order
	MaxCartQuantity int

	// Built-in promo rule (used when no promo registry DB is configured)
	PromoCode    string
	PromoPercent decimal.Decimal

	// Cart storage
	CartBackend string // memory | redis | postgres
	CartTTL     time.Duration
	SessionTTL  time.Duration

	// Redis (CART_BACKEND=redis)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Postgres (CART_BACKEND=postgres, also enables the promo registry)
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration

	// R2 snapshot archive (optional)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string
	R2UploadTimeout   time.Duration
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: Try loading .env (standard local dev)
		// We don't error here because in pure docker/prod envs, .env might not exist,
		// and we rely on system env vars.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		AdminAPIKey:   getEnv("ADMIN_API_KEY", ""),

		// Pricing defaults: 10% tax, flat 10.00 shipping
		TaxRate:         getDecimalEnv("TAX_RATE", "0.1"),
		ShippingCost:    getDecimalEnv("SHIPPING_COST", "10"),
		MaxCartQuantity: getIntEnv("MAX_CART_QUANTITY", 1000),

		// Built-in promo rule: DISCOUNT20 takes 20% off the subtotal
		PromoCode:    getEnv("PROMO_CODE", "DISCOUNT20"),
		PromoPercent: getDecimalEnv("PROMO_PERCENT", "20"),

		CartBackend: getEnv("CART_BACKEND", BackendMemory),
		CartTTL:     getDurationEnv("CART_TTL", 30*24*time.Hour),
		SessionTTL:  getDurationEnv("SESSION_TTL", 24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		R2UploadTimeout:   getDurationEnv("R2_UPLOAD_TIMEOUT", 30*time.Second),
	}

	cfg.Validate()
	return cfg
}

func (c *Config) Validate() {
	switch c.CartBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			log.Fatal("CRITICAL: REDIS_ADDR is required when CART_BACKEND=redis")
		}
	case BackendPostgres:
		if c.DBUrl == "" {
			log.Fatal("CRITICAL: DB_DSN is required when CART_BACKEND=postgres")
		}
	default:
		log.Fatalf("CRITICAL: unknown CART_BACKEND %q (expected memory, redis or postgres)", c.CartBackend)
	}

	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	if c.AdminAPIKey == "" {
		log.Println("WARNING: ADMIN_API_KEY is empty, admin promo endpoints are disabled")
	}
	if c.TaxRate.IsNegative() {
		log.Fatal("CRITICAL: TAX_RATE cannot be negative")
	}
	if c.ShippingCost.IsNegative() {
		log.Fatal("CRITICAL: SHIPPING_COST cannot be negative")
	}
	if c.PromoPercent.IsNegative() || c.PromoPercent.GreaterThan(decimal.NewFromInt(100)) {
		log.Fatal("CRITICAL: PROMO_PERCENT must be between 0 and 100")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getInt32Env(key string, fallback int32) int32 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
		log.Printf("Invalid int32 for %s, using fallback", key)
	}
	return fallback
}

func getDecimalEnv(key, fallback string) decimal.Decimal {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
		log.Printf("Invalid decimal for %s, using fallback", key)
	}
	d, err := decimal.NewFromString(fallback)
	if err != nil {
		log.Fatalf("Invalid decimal fallback for %s: %v", key, err)
	}
	return d
}
