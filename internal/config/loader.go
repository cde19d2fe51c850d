package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidBoostProviders lists the known LLM backend names for the boost pass.
// Used by [Validate] to warn about unrecognised provider names.
var ValidBoostProviders = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp",
}

// providersWithoutKey are boost providers that run locally and need no API key.
var providersWithoutKey = []string{"ollama", "llamacpp"}

// Default returns the configuration used when no config file exists: an
// in-memory catalog seeded with the shop's standard flavor board, no
// database, and boost disabled.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Catalog: CatalogConfig{
			SeedFlavors: []SeedFlavor{
				{Name: "Sweet Cream", Category: "Classics"},
				{Name: "Vanilla", Category: "Classics"},
				{Name: "Chocolate", Category: "Classics"},
				{Name: "Strawberry", Category: "Classics"},
				{Name: "Coffee", Category: "Classics"},
				{Name: "Banana Marshmallow", Category: "Fruity"},
				{Name: "Black Raspberry", Category: "Fruity"},
				{Name: "Black Cherry", Category: "Fruity"},
				{Name: "Creamcicle", Category: "Fruity"},
				{Name: "Peaches n Cream", Category: "Fruity"},
				{Name: "Razzmanian Devil", Category: "Fruity"},
				{Name: "Chocolate PB Swirl", Category: "Chocolate"},
				{Name: "Rocky Road", Category: "Chocolate"},
				{Name: "German Choc Brownie", Category: "Chocolate"},
				{Name: "Chocolate Chip", Category: "Chocolate"},
				{Name: "Mint Chip", Category: "Chocolate"},
				{Name: "Toasted Almond", Category: "Nutty"},
				{Name: "PB Cup", Category: "Nutty"},
				{Name: "Butter Pecan", Category: "Nutty"},
				{Name: "Funfetti", Category: "Cookie & Fun"},
				{Name: "Cookie Monster", Category: "Cookie & Fun"},
				{Name: "Cookies n Cream", Category: "Cookie & Fun"},
				{Name: "Cookie Dough", Category: "Cookie & Fun"},
				{Name: "Caramel Swirl", Category: "Sweet & Fun"},
				{Name: "Horchata", Category: "Specialty"},
			},
		},
	}
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Boost
	if cfg.Boost.Enabled {
		if cfg.Boost.Provider == "" {
			errs = append(errs, errors.New("boost.provider is required when boost.enabled is true"))
		} else if !slices.Contains(ValidBoostProviders, cfg.Boost.Provider) {
			slog.Warn("unknown boost provider name — may be a typo or third-party provider",
				"name", cfg.Boost.Provider,
				"known", ValidBoostProviders,
			)
		}
		if cfg.Boost.APIKey == "" && !slices.Contains(providersWithoutKey, cfg.Boost.Provider) {
			slog.Warn("boost.api_key is empty; the provider will likely reject requests",
				"provider", cfg.Boost.Provider)
		}
		if fb := cfg.Boost.Fallback; fb.Provider != "" {
			if !slices.Contains(ValidBoostProviders, fb.Provider) {
				slog.Warn("unknown boost fallback provider name — may be a typo or third-party provider",
					"name", fb.Provider,
					"known", ValidBoostProviders,
				)
			}
			if fb.APIKey == "" && !slices.Contains(providersWithoutKey, fb.Provider) {
				slog.Warn("boost.fallback.api_key is empty; the fallback will likely reject requests",
					"provider", fb.Provider)
			}
		}
	}
	if cfg.Boost.Temperature < 0 || cfg.Boost.Temperature > 2 {
		errs = append(errs, fmt.Errorf("boost.temperature %.2f is out of range [0, 2]", cfg.Boost.Temperature))
	}

	// Catalog seeds
	seen := make(map[string]int, len(cfg.Catalog.SeedFlavors))
	for i, sf := range cfg.Catalog.SeedFlavors {
		prefix := fmt.Sprintf("catalog.seed_flavors[%d]", i)
		if sf.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := seen[sf.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of catalog.seed_flavors[%d]", prefix, sf.Name, prev))
		}
		seen[sf.Name] = i
	}
	if cfg.Database.PostgresDSN != "" && len(cfg.Catalog.SeedFlavors) > 0 {
		slog.Warn("catalog.seed_flavors is ignored when database.postgres_dsn is set")
	}

	return errors.Join(errs...)
}
