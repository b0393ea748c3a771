package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		StoreDriver:       StoreDriverPostgres,
		DatabaseURL:       "postgres://localhost/babytrack",
		JWTSecret:         "0123456789abcdef-secret",
		JWTAlgorithm:      "HS256",
		ReferenceTimezone: "UTC",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }},
		{name: "insecure default", mutate: func(c *Config) { c.JWTSecret = "change-me-in-production" }},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }},
		{name: "unknown timezone", mutate: func(c *Config) { c.ReferenceTimezone = "Mars/Olympus" }},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "mongo" }},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseURL = " " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestMemoryDriverDoesNotNeedDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.StoreDriver = StoreDriverMemory
	cfg.DatabaseURL = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected memory driver to validate, got %v", err)
	}
}

func TestLocationResolvesZone(t *testing.T) {
	cfg := validConfig()
	cfg.ReferenceTimezone = "Europe/London"
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	if loc.String() != "Europe/London" {
		t.Fatalf("unexpected location %s", loc)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SHEETS_CREDENTIALS_PATH", "/tmp/creds.json")
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-1")

	cfg := Load()
	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto migrate enabled")
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigins)
	}
	if !cfg.Sheets.Enabled() || cfg.Sheets.Range == "" {
		t.Fatalf("expected sheets export enabled with default range, got %+v", cfg.Sheets)
	}
}
