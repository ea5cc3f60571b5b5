package buildCFG

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type GeocodeConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	TTL       time.Duration
	Limit     int
}

type MediaConfig struct {
	UploadDir string
	MaxBound  int
	Quality   int
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) *ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
	}
	return &ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	var slaveDSNs []string
	for _, dsn := range strings.Split(cfg.GetString("database.slave_dsns"), ",") {
		if dsn = strings.TrimSpace(dsn); dsn != "" {
			slaveDSNs = append(slaveDSNs, dsn)
		}
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: durationOrDefault(cfg, log, "database.conn_max_lifetime", 5*time.Minute),
	}
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (*RabbitConfig, error) {
	rc := &RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" || rc.Exchange == "" || rc.Queue == "" {
		return nil, fmt.Errorf("rabbit.url, rabbit.exchange and rabbit.queue are required")
	}
	return rc, nil
}

func BuildRedisConfig(cfg *config.Config, log *zerolog.Logger) *RedisConfig {
	addr := cfg.GetString("redis.addr")
	if addr == "" {
		addr = "localhost:6379"
	}
	return &RedisConfig{
		Addr:     addr,
		Password: cfg.GetString("redis.password"),
		DB:       cfg.GetInt("redis.db"),
	}
}

func BuildGeocodeConfig(cfg *config.Config, log *zerolog.Logger) *GeocodeConfig {
	gc := &GeocodeConfig{
		BaseURL:   cfg.GetString("geocode.base_url"),
		UserAgent: cfg.GetString("geocode.user_agent"),
		Timeout:   durationOrDefault(cfg, log, "geocode.timeout", 5*time.Second),
		TTL:       durationOrDefault(cfg, log, "geocode.ttl", time.Hour),
		Limit:     cfg.GetInt("geocode.limit"),
	}
	if gc.UserAgent == "" {
		gc.UserAgent = "eventboard/1.0"
	}
	if gc.Limit <= 0 {
		gc.Limit = 5
	}
	return gc
}

func BuildMediaConfig(cfg *config.Config, log *zerolog.Logger) *MediaConfig {
	mc := &MediaConfig{
		UploadDir: cfg.GetString("media.upload_dir"),
		MaxBound:  cfg.GetInt("media.max_bound"),
		Quality:   cfg.GetInt("media.quality"),
	}
	if mc.UploadDir == "" {
		mc.UploadDir = "static/uploads"
	}
	return mc
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) (*AuthConfig, error) {
	secret := cfg.GetString("auth.secret")
	if secret == "" {
		return nil, fmt.Errorf("auth.secret is required")
	}
	return &AuthConfig{
		Secret:   secret,
		TokenTTL: durationOrDefault(cfg, log, "auth.token_ttl", 24*time.Hour),
	}, nil
}

func durationOrDefault(cfg *config.Config, log *zerolog.Logger, key string, def time.Duration) time.Duration {
	raw := cfg.GetString(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msgf("invalid duration, using default %s", def)
		return def
	}
	return d
}
