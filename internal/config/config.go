// Package config provides application configuration loading.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tripmesh/inventory/internal/search/types"
)

// AdapterConfig describes one provider adapter endpoint.
type AdapterConfig struct {
	Name    string
	BaseURL string
	Types   []types.ProductType
}

// Config holds all application configuration values.
type Config struct {
	Env      string
	HTTPAddr string

	// Adapters are parsed from ADAPTERS: semicolon-separated entries of the
	// form name|base_url|type1,type2. FallbackAdapter names the adapter used
	// for callers with no per-org provider configuration.
	Adapters        []AdapterConfig
	FallbackAdapter string

	// OrgProviders maps an organization id to its enabled provider names,
	// parsed from ORG_PROVIDERS (org:name1,name2;org2:name3).
	OrgProviders map[string][]string

	TestMode    bool
	Workers     int
	TaskTimeout time.Duration
	CodeTTL     time.Duration
	RedisAddr   string
	RateRPS     float64
	RateBurst   int
}

const defaultAdapters = "viaroute|http://localhost:9101|activity;" +
	"stayhub|http://localhost:9102|hotel;" +
	"forketta|http://localhost:9103|restaurant"

// Load reads configuration from environment variables. A .env file is applied
// first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	adapters, err := parseAdapters(getEnv("ADAPTERS", defaultAdapters))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		Adapters:        adapters,
		FallbackAdapter: getEnv("FALLBACK_ADAPTER", adapters[0].Name),
		OrgProviders:    parseOrgProviders(getEnv("ORG_PROVIDERS", "")),
		TestMode:        strings.EqualFold(getEnv("TEST_MODE", "false"), "true"),
		Workers:         mustInt(getEnv("SEARCH_WORKERS", "8")),
		TaskTimeout:     mustDuration(getEnv("TASK_TIMEOUT", "30s")),
		CodeTTL:         mustDuration(getEnv("CODE_TTL", "30m")),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RateRPS:         mustFloat(getEnv("RATE_RPS", "5")),
		RateBurst:       mustInt(getEnv("RATE_BURST", "10")),
	}

	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("SEARCH_WORKERS must be positive")
	}
	if cfg.TaskTimeout <= 0 {
		return nil, fmt.Errorf("TASK_TIMEOUT must be a positive duration")
	}
	if cfg.CodeTTL <= 0 {
		return nil, fmt.Errorf("CODE_TTL must be a positive duration")
	}
	if !hasAdapter(adapters, cfg.FallbackAdapter) {
		return nil, fmt.Errorf("FALLBACK_ADAPTER %q is not in ADAPTERS", cfg.FallbackAdapter)
	}

	return cfg, nil
}

// EnabledProviders returns the provider names enabled for an organization.
func (c *Config) EnabledProviders(orgID string) []string {
	return c.OrgProviders[orgID]
}

func parseAdapters(raw string) ([]AdapterConfig, error) {
	var adapters []AdapterConfig
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid ADAPTERS entry %q (want name|url|types)", entry)
		}

		var pts []types.ProductType
		for _, t := range strings.Split(parts[2], ",") {
			pt := types.ProductType(strings.TrimSpace(t))
			if !pt.Valid() {
				return nil, fmt.Errorf("invalid product type %q in ADAPTERS entry %q", t, entry)
			}
			pts = append(pts, pt)
		}

		adapters = append(adapters, AdapterConfig{
			Name:    strings.TrimSpace(parts[0]),
			BaseURL: strings.TrimSpace(parts[1]),
			Types:   pts,
		})
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("ADAPTERS must define at least one adapter")
	}
	return adapters, nil
}

func parseOrgProviders(raw string) map[string][]string {
	orgs := make(map[string][]string)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		org, providers, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		for _, name := range strings.Split(providers, ",") {
			if name = strings.TrimSpace(name); name != "" {
				orgs[org] = append(orgs[org], name)
			}
		}
	}
	return orgs
}

func hasAdapter(adapters []AdapterConfig, name string) bool {
	for _, a := range adapters {
		if a.Name == name {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}
