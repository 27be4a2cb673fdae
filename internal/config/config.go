package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Snapshot backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Snapshot SnapshotConfig
	Relay    RelayConfig
	Log      LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	snapshot, err := loadSnapshotConfig()
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Snapshot: snapshot, Relay: relay, Log: logCfg}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	StaticDir      string
	AllowedOrigins []string
	MetricsEnabled bool
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	metrics, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		StaticDir:      strings.TrimSpace(os.Getenv("STATIC_DIR")),
		AllowedOrigins: parseListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MetricsEnabled: metrics,
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":3000" 或 "127.0.0.1:3000"。
		cfg.Addr = port
		return cfg, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// SnapshotConfig 描述消息快照的持久化方式。
type SnapshotConfig struct {
	Backend    string
	Path       string
	RedisURL   string
	RedisKey   string
	SQLitePath string
}

func loadSnapshotConfig() (SnapshotConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("SNAPSHOT_BACKEND", BackendFile))
	switch backend {
	case BackendFile, BackendRedis, BackendSQLite:
	default:
		return SnapshotConfig{}, fmt.Errorf("invalid SNAPSHOT_BACKEND value %q", backend)
	}

	cfg := SnapshotConfig{
		Backend:    backend,
		Path:       getEnvOrDefault("SNAPSHOT_PATH", "messages.json"),
		RedisURL:   strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisKey:   getEnvOrDefault("REDIS_KEY", "sphere-relay:messages"),
		SQLitePath: getEnvOrDefault("SQLITE_PATH", "messages.db"),
	}

	if backend == BackendRedis && cfg.RedisURL == "" {
		return SnapshotConfig{}, fmt.Errorf("REDIS_URL is required when SNAPSHOT_BACKEND=%s", BackendRedis)
	}
	return cfg, nil
}

// RelayConfig 描述中继的可选后台行为。
type RelayConfig struct {
	// SweepInterval 为 0 时不启动后台清理，过期消息只在读写时惰性过滤。
	SweepInterval time.Duration
}

func loadRelayConfig() (RelayConfig, error) {
	interval, err := parseDurationEnv("SWEEP_INTERVAL", 0)
	if err != nil {
		return RelayConfig{}, err
	}
	if interval < 0 {
		return RelayConfig{}, fmt.Errorf("invalid SWEEP_INTERVAL value %q: must not be negative", interval)
	}
	return RelayConfig{SweepInterval: interval}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
	File   string
}

func loadLogConfig() (LogConfig, error) {
	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text"))
	if format != "text" && format != "json" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}

	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: format,
		File:   strings.TrimSpace(os.Getenv("LOG_FILE")),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	var out []string
	for _, entry := range strings.Split(raw, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
