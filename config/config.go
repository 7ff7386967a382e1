package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Redis    RedisConfig
	S3       S3Config
	Payment  PaymentConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type PaymentConfig struct {
	ESewa  ESewaConfig
	Khalti KhaltiConfig
}

// ESewaConfig carries both the sandbox and live credential pairs; Mode
// selects which pair the client uses.
type ESewaConfig struct {
	Mode            string // test, live
	TestMerchant    string
	TestSecret      string
	LiveMerchant    string
	LiveSecret      string
	TestPaymentURL  string
	TestStatusURL   string
	LivePaymentURL  string
	LiveStatusURL   string
	SuccessURL      string
	FailureURL      string
}

type KhaltiConfig struct {
	Mode       string // test, live
	TestSecret string
	LiveSecret string
	TestBase   string
	LiveBase   string
	ReturnURL  string
	FailureURL string
	WebsiteURL string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "kinmel"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry: parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "12h")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-south-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "kinmel-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Payment: PaymentConfig{
			ESewa: ESewaConfig{
				Mode:           getEnv("ESEWA_MODE", "test"),
				TestMerchant:   getEnv("ESEWA_TEST_MERCHANT", "EPAYTEST"),
				TestSecret:     getEnv("ESEWA_TEST_SECRET", "8gBm/:&EnhH.1/q"),
				LiveMerchant:   getEnv("ESEWA_LIVE_MERCHANT", ""),
				LiveSecret:     getEnv("ESEWA_LIVE_SECRET", ""),
				TestPaymentURL: getEnv("ESEWA_TEST_PAYMENT_URL", "https://rc-epay.esewa.com.np/api/epay/main/v2/form"),
				TestStatusURL:  getEnv("ESEWA_TEST_STATUS_URL", "https://rc.esewa.com.np/api/epay/transaction/status/"),
				LivePaymentURL: getEnv("ESEWA_LIVE_PAYMENT_URL", "https://epay.esewa.com.np/api/epay/main/v2/form"),
				LiveStatusURL:  getEnv("ESEWA_LIVE_STATUS_URL", "https://epay.esewa.com.np/api/epay/transaction/status/"),
				SuccessURL:     getEnv("ESEWA_SUCCESS_URL", "http://localhost:8080/api/v1/payments/esewa/success"),
				FailureURL:     getEnv("ESEWA_FAILURE_URL", "http://localhost:8080/api/v1/payments/esewa/failure"),
			},
			Khalti: KhaltiConfig{
				Mode:       getEnv("KHALTI_MODE", "test"),
				TestSecret: getEnv("KHALTI_TEST_SECRET", ""),
				LiveSecret: getEnv("KHALTI_LIVE_SECRET", ""),
				TestBase:   getEnv("KHALTI_TEST_BASE", "https://dev.khalti.com/api/v2"),
				LiveBase:   getEnv("KHALTI_LIVE_BASE", "https://khalti.com/api/v2"),
				ReturnURL:  getEnv("KHALTI_RETURN_URL", "http://localhost:8080/api/v1/payments/khalti/return"),
				FailureURL: getEnv("KHALTI_FAILURE_URL", "http://localhost:8080/api/v1/payments/khalti/failure"),
				WebsiteURL: getEnv("KHALTI_WEBSITE_URL", "http://localhost:3000"),
			},
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Merchant returns the merchant code for the active mode.
func (c *ESewaConfig) Merchant() string {
	if c.Mode == "live" {
		return c.LiveMerchant
	}
	return c.TestMerchant
}

// Secret returns the signing secret for the active mode.
func (c *ESewaConfig) Secret() string {
	if c.Mode == "live" {
		return c.LiveSecret
	}
	return c.TestSecret
}

func (c *ESewaConfig) PaymentURL() string {
	if c.Mode == "live" {
		return c.LivePaymentURL
	}
	return c.TestPaymentURL
}

func (c *ESewaConfig) StatusURL() string {
	if c.Mode == "live" {
		return c.LiveStatusURL
	}
	return c.TestStatusURL
}

func (c *KhaltiConfig) Secret() string {
	if c.Mode == "live" {
		return c.LiveSecret
	}
	return c.TestSecret
}

func (c *KhaltiConfig) BaseURL() string {
	if c.Mode == "live" {
		return c.LiveBase
	}
	return c.TestBase
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default 12h", s)
		return 12 * time.Hour
	}
	return duration
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
