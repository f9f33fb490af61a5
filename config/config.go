// Package config loads service configuration from a .env file and
// environment variables. Priority: environment > .env file >
// defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Server struct {
	ListenAddr string
	LogLevel   string
}

type Journal struct {
	Dir         string
	SegmentSize int64
	SegmentAge  time.Duration
}

type Snapshot struct {
	Dir      string
	Interval time.Duration
}

type Outbox struct {
	Dir string
}

// Kafka configures the trade broadcast and the backtest feed. An
// empty broker list disables both.
type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
}

type Broadcast struct {
	Interval time.Duration
}

type Tape struct {
	Size uint64 // power of two
}

type Config struct {
	Server    Server
	Journal   Journal
	Snapshot  Snapshot
	Outbox    Outbox
	Kafka     Kafka
	Broadcast Broadcast
	Tape      Tape
}

func Default() Config {
	return Config{
		Server: Server{
			ListenAddr: ":8080",
			LogLevel:   "info",
		},
		Journal: Journal{
			Dir:         "data/journal",
			SegmentSize: 64 << 20,
			SegmentAge:  time.Minute,
		},
		Snapshot: Snapshot{
			Dir:      "data/snapshot",
			Interval: 30 * time.Second,
		},
		Outbox: Outbox{
			Dir: "data/outbox",
		},
		Kafka: Kafka{
			Brokers: nil, // broadcast disabled by default
			Topic:   "trades",
			Group:   "midas-backtest",
		},
		Broadcast: Broadcast{
			Interval: 250 * time.Millisecond,
		},
		Tape: Tape{
			Size: 1 << 12,
		},
	}
}

// BroadcastEnabled reports whether a Kafka broker list was given.
func (c Config) BroadcastEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. An empty envPath means ".env" in the current
// directory.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Server.ListenAddr = getEnv("LISTEN_ADDR", cfg.Server.ListenAddr)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", cfg.Server.LogLevel)

	cfg.Journal.Dir = getEnv("JOURNAL_DIR", cfg.Journal.Dir)
	cfg.Journal.SegmentSize = getInt64("JOURNAL_SEGMENT_BYTES", cfg.Journal.SegmentSize)
	cfg.Journal.SegmentAge = getDurationMS("JOURNAL_SEGMENT_AGE_MS", cfg.Journal.SegmentAge)

	cfg.Snapshot.Dir = getEnv("SNAPSHOT_DIR", cfg.Snapshot.Dir)
	cfg.Snapshot.Interval = getDurationMS("SNAPSHOT_INTERVAL_MS", cfg.Snapshot.Interval)

	cfg.Outbox.Dir = getEnv("OUTBOX_DIR", cfg.Outbox.Dir)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Kafka.Group = getEnv("KAFKA_GROUP", cfg.Kafka.Group)

	cfg.Broadcast.Interval = getDurationMS("BROADCAST_INTERVAL_MS", cfg.Broadcast.Interval)

	if size := getInt64("TRADE_TAPE_SIZE", int64(cfg.Tape.Size)); size > 0 {
		cfg.Tape.Size = uint64(size)
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getDurationMS(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
