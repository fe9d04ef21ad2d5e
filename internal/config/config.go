// Package config builds the immutable run configuration from the
// environment. It is constructed once at process start and injected; no
// component reads ambient globals.
package config

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full run configuration.
type Config struct {
	BaseURL    string
	Address    string
	Categories []string
	Pages      int

	Headless   bool
	UserAgents []string

	ProxyHost     string
	ProxyPort     string
	ProxyUser     string
	ProxyPassword string

	FindTimeout    time.Duration
	AddressTimeout time.Duration
	SettleTimeout  time.Duration
	PageDelay      time.Duration

	OutputFile  string
	DatabaseURL string
	MetricsAddr string

	LogLevel string
}

// Load reads the configuration from the environment, applying defaults for
// everything unset.
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL:    getEnvOrDefault("SCRAPER_BASE_URL", "https://www.okeydostavka.ru"),
		Address:    getEnvOrDefault("SCRAPER_ADDRESS", "Москва, Малая Бронная улица, 32"),
		Categories: getStringSliceOrDefault("SCRAPER_CATEGORIES", defaultCategories()),
		Pages:      getIntOrDefault("SCRAPER_PAGES", 2),

		Headless:   getBoolOrDefault("SCRAPER_HEADLESS", true),
		UserAgents: getStringSliceOrDefault("SCRAPER_USER_AGENTS", defaultUserAgents()),

		ProxyHost:     os.Getenv("PROXY_HOST"),
		ProxyPort:     os.Getenv("PROXY_PORT"),
		ProxyUser:     os.Getenv("PROXY_USER"),
		ProxyPassword: os.Getenv("PROXY_PASS"),

		FindTimeout:    getDurationOrDefault("SCRAPER_FIND_TIMEOUT", 10*time.Second),
		AddressTimeout: getDurationOrDefault("SCRAPER_ADDRESS_TIMEOUT", 15*time.Second),
		SettleTimeout:  getDurationOrDefault("SCRAPER_SETTLE_TIMEOUT", 10*time.Second),
		PageDelay:      getDurationOrDefault("SCRAPER_PAGE_DELAY", 5*time.Second),

		OutputFile:  getEnvOrDefault("SCRAPER_OUTPUT", "products.csv"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Pages < 1 {
		return fmt.Errorf("SCRAPER_PAGES must be at least 1")
	}
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("SCRAPER_ADDRESS must not be empty")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("SCRAPER_CATEGORIES must name at least one category")
	}
	if len(c.UserAgents) == 0 {
		return fmt.Errorf("SCRAPER_USER_AGENTS must name at least one identity")
	}
	if (c.ProxyHost == "") != (c.ProxyPort == "") {
		return fmt.Errorf("PROXY_HOST and PROXY_PORT must be set together")
	}
	return nil
}

// PickUserAgent selects the spoofed identity for this run. The random source
// is injected so tests pick deterministically.
func (c *Config) PickUserAgent(rng *rand.Rand) string {
	return c.UserAgents[rng.Intn(len(c.UserAgents))]
}

// ProxyServer returns the proxy address, or empty when no proxy is
// configured.
func (c *Config) ProxyServer() string {
	if c.ProxyHost == "" {
		return ""
	}
	return "http://" + c.ProxyHost + ":" + c.ProxyPort
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func defaultCategories() []string {
	return []string{"Товары со скидками", "Бытовая химия"}
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
