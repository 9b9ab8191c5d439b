package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level settings, read from the environment
// (a .env file is honored if present).
type Config struct {
	// Addr is the listen address for the HTTP/websocket server.
	Addr string
	// CatalogPath optionally overrides the embedded player catalog
	// with an external YAML file.
	CatalogPath string
	// RoomTTL is how long an idle room survives before the reaper
	// evicts it.
	RoomTTL time.Duration
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:        ":9000",
		CatalogPath: os.Getenv("CATALOG_PATH"),
		RoomTTL:     30 * time.Minute,
	}
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if mins := os.Getenv("ROOM_TTL_MINUTES"); mins != "" {
		if m, err := strconv.Atoi(mins); err == nil && m > 0 {
			cfg.RoomTTL = time.Duration(m) * time.Minute
		}
	}
	return cfg
}
