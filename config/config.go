package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP server
	ListenAddr string

	// Orchestrator configuration
	PayoutWorkers      int // bounded parallelism over the candidate set
	ProviderMaxRetries int // retries after the first provider attempt

	// Mock provider knobs
	MockFailureRate float64
	MockLatency     time.Duration

	// Environment
	Environment string // "development", "production" or "test"
	LogLevel    string
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  ":8080",

		PayoutWorkers:      4,
		ProviderMaxRetries: 5,

		MockFailureRate: 0.05,
		MockLatency:     100 * time.Millisecond,

		Environment: os.Getenv("ENVIRONMENT"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if workers := os.Getenv("PAYOUT_WORKERS"); workers != "" {
		if parsed, err := strconv.Atoi(workers); err == nil && parsed > 0 {
			config.PayoutWorkers = parsed
		}
	}
	if retries := os.Getenv("PROVIDER_MAX_RETRIES"); retries != "" {
		if parsed, err := strconv.Atoi(retries); err == nil && parsed >= 0 {
			config.ProviderMaxRetries = parsed
		}
	}
	if rate := os.Getenv("MOCK_FAILURE_RATE"); rate != "" {
		if parsed, err := strconv.ParseFloat(rate, 64); err == nil && parsed >= 0 {
			config.MockFailureRate = parsed
		}
	}
	if latency := os.Getenv("MOCK_LATENCY_MS"); latency != "" {
		if parsed, err := strconv.Atoi(latency); err == nil && parsed >= 0 {
			config.MockLatency = time.Duration(parsed) * time.Millisecond
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
