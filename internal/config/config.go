// Package config provides runtime configuration values for the data layer.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration knobs for the remote backends and local stores.
type Config struct {
	BaseURL          string
	ExternalBaseURL  string
	HTTPTimeout      time.Duration
	ProductFreshFor  time.Duration
	SecureStorePath  string
	SecureStoreKey   string
	BadgeStoreDir    string
	NotifyVisibility time.Duration
	NotifyBuffer     int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		BaseURL:          getenv("API_BASE_URL", "https://nutriback-seven.vercel.app"),
		ExternalBaseURL:  getenv("OFF_BASE_URL", "https://world.openfoodfacts.org"),
		HTTPTimeout:      durenvms("HTTP_TIMEOUT_MS", 15000),
		ProductFreshFor:  durenvms("PRODUCT_FRESH_MS", 5*60*1000),
		SecureStorePath:  getenv("SECURE_STORE_PATH", "secure.bin"),
		SecureStoreKey:   getenv("SECURE_STORE_KEY", ""),
		BadgeStoreDir:    getenv("BADGE_STORE_DIR", "."),
		NotifyVisibility: durenvms("NOTIFY_VISIBLE_MS", 8000),
		NotifyBuffer:     atoienv("NOTIFY_BUFFER", 16),
	}
}
