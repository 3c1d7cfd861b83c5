package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using its `env`
// tags. Durations, slices and custom TextUnmarshalers are supported by the
// underlying parser.
//
//	type Config struct {
//	    Port        int           `env:"HTTP_PORT" envDefault:"8080"`
//	    ShelfRefresh time.Duration `env:"SHELF_REFRESH" envDefault:"5m"`
//	}
func Load(cfg any) error {
	return LoadWithPrefix(cfg, "")
}

// LoadWithPrefix behaves like Load but prepends prefix to every variable name,
// so STOREFRONT_ + HTTP_PORT reads STOREFRONT_HTTP_PORT.
func LoadWithPrefix(cfg any, prefix string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
