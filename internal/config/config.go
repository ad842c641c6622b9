// Package config loads application configuration from environment
// variables. The booking policies left open by the services (hold TTL,
// tax rates, cancellation cutoff) all live here; nothing is hard-coded.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/odeska/cinema-booking/internal/model"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	HoldTokenSecret string // secret used to sign hold tokens
	AdminKeyHash    string // bcrypt hash of the admin API key (empty disables admin routes)

	HoldTTL          time.Duration // lifetime of a new seat hold
	SweepInterval    time.Duration // how often the advisory expiry sweep runs
	CancelCutoff     time.Duration // how long before show start cancellation closes
	SnapshotCacheTTL time.Duration // lifetime of cached seat snapshots

	TaxFlatBP        uint32                    // default tax rate in basis points
	TaxPerSeatTypeBP map[model.SeatType]uint32 // optional per-seat-type overrides

	AmqpURL string // message broker URL (empty disables events)
}

// Load reads configuration from environment variables. Required values
// are enforced by must(); a missing one exits with a fatal log message.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		HoldTokenSecret: must("HOLD_TOKEN_SECRET"),
		AdminKeyHash:    os.Getenv("ADMIN_KEY_HASH"),

		HoldTTL:          mustDur("HOLD_TTL"),
		SweepInterval:    durOr("SWEEP_INTERVAL", time.Minute),
		CancelCutoff:     durOr("CANCEL_CUTOFF", 0),
		SnapshotCacheTTL: durOr("SNAPSHOT_CACHE_TTL", 5*time.Second),

		TaxFlatBP:        uint32(mustInt("TAX_FLAT_BP")),
		TaxPerSeatTypeBP: parseSeatTypeRates(os.Getenv("TAX_SEAT_TYPE_BP")),

		AmqpURL: os.Getenv("RABBITMQ_URL"),
	}
}

// TaxRates returns the configured tax rates in the shape the finalizer's
// tax policy consumes.
func (c Config) TaxRates() (flat uint32, perType map[model.SeatType]uint32) {
	return c.TaxFlatBP, c.TaxPerSeatTypeBP
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustDur is like must() but parses a time.Duration ("5m", "90s").
func mustDur(key string) time.Duration {
	s := must(key)
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}

// durOr parses an optional duration, falling back to def.
func durOr(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}

// parseSeatTypeRates parses overrides of the form "VIP=1800,COUPLE=1200"
// into a seat-type→basis-points map. An empty input yields nil, meaning
// the flat rate applies everywhere.
func parseSeatTypeRates(s string) map[model.SeatType]uint32 {
	if s == "" {
		return nil
	}
	out := make(map[model.SeatType]uint32)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			log.Fatalf("invalid TAX_SEAT_TYPE_BP entry: %q", pair)
		}
		bp, err := strconv.ParseUint(strings.TrimSpace(kv[1]), 10, 32)
		if err != nil {
			log.Fatalf("invalid basis points in TAX_SEAT_TYPE_BP entry: %q", pair)
		}
		out[model.SeatType(strings.ToUpper(strings.TrimSpace(kv[0])))] = uint32(bp)
	}
	return out
}
