package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tunables is the optional YAML overlay named by CONFIG_FILE. Only
// non-secret knobs live here; zero values leave the default in place.
type Tunables struct {
	Verification struct {
		MaxAttempts int    `yaml:"max_attempts"`
		CodeExpiry  string `yaml:"code_expiry"`
	} `yaml:"verification"`

	RateLimits struct {
		// Pointers so an explicit 0 can disable a tier.
		GlobalPerHour    *int   `yaml:"global_per_hour"`
		PerClientPerHour *int   `yaml:"per_client_per_hour"`
		PerNumberPerHour *int   `yaml:"per_number_per_hour"`
		Window           string `yaml:"window"`
	} `yaml:"rate_limits"`

	Search struct {
		PageSize int     `yaml:"page_size"`
		CacheTTL string  `yaml:"cache_ttl"`
		RefLat   float64 `yaml:"reference_lat"`
		RefLng   float64 `yaml:"reference_lng"`
	} `yaml:"search"`

	Cleanup struct {
		Cron string `yaml:"cron"`
	} `yaml:"cleanup"`

	parsed struct {
		codeExpiry time.Duration
		window     time.Duration
		cacheTTL   time.Duration
	}
}

func LoadTunables(path string) (*Tunables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTunables(raw)
}

// ParseTunables decodes and validates a YAML overlay. Durations use Go
// syntax ("90s", "10m").
func ParseTunables(raw []byte) (*Tunables, error) {
	var t Tunables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode tunables: %w", err)
	}

	var err error
	if t.parsed.codeExpiry, err = parseDuration("verification.code_expiry", t.Verification.CodeExpiry); err != nil {
		return nil, err
	}
	if t.parsed.window, err = parseDuration("rate_limits.window", t.RateLimits.Window); err != nil {
		return nil, err
	}
	if t.parsed.cacheTTL, err = parseDuration("search.cache_ttl", t.Search.CacheTTL); err != nil {
		return nil, err
	}
	if t.Verification.MaxAttempts < 0 {
		return nil, fmt.Errorf("verification.max_attempts must be positive, got %d", t.Verification.MaxAttempts)
	}
	if t.Search.PageSize < 0 {
		return nil, fmt.Errorf("search.page_size must be positive, got %d", t.Search.PageSize)
	}
	for name, v := range map[string]*int{
		"rate_limits.global_per_hour":     t.RateLimits.GlobalPerHour,
		"rate_limits.per_client_per_hour": t.RateLimits.PerClientPerHour,
		"rate_limits.per_number_per_hour": t.RateLimits.PerNumberPerHour,
	} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("%s must not be negative, got %d", name, *v)
		}
	}
	return &t, nil
}

// Apply copies every set field onto cfg.
func (t *Tunables) Apply(cfg *Config) {
	if t.Verification.MaxAttempts > 0 {
		cfg.VerificationMaxAttempts = t.Verification.MaxAttempts
	}
	if t.parsed.codeExpiry > 0 {
		cfg.VerificationCodeExpiry = t.parsed.codeExpiry
	}
	if v := t.RateLimits.GlobalPerHour; v != nil {
		cfg.GlobalSMSLimitPerHour = *v
	}
	if v := t.RateLimits.PerClientPerHour; v != nil {
		cfg.SMSLimitPerClientPerHour = *v
	}
	if v := t.RateLimits.PerNumberPerHour; v != nil {
		cfg.SMSLimitPerNumberPerHour = *v
	}
	if t.parsed.window > 0 {
		cfg.RateLimitWindow = t.parsed.window
	}
	if t.Search.PageSize > 0 {
		cfg.SearchPageSize = t.Search.PageSize
	}
	if t.parsed.cacheTTL > 0 {
		cfg.SearchCacheTTL = t.parsed.cacheTTL
	}
	if t.Search.RefLat != 0 || t.Search.RefLng != 0 {
		cfg.MapReferenceLat = t.Search.RefLat
		cfg.MapReferenceLng = t.Search.RefLng
	}
	if t.Cleanup.Cron != "" {
		cfg.CleanupCronSpec = t.Cleanup.Cron
	}
}

func parseDuration(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}
