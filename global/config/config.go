package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"linkloop/tools/errs"
)

// AppConfig is the process configuration. Values come from an optional YAML
// file, then environment overrides for anything deploy-specific.
type AppConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	NodeID   int64  `yaml:"node_id"`

	PostgresDSN string `yaml:"postgres_dsn"`

	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// NATS relay is optional; empty URL runs single-instance.
	NATSURL string `yaml:"nats_url"`

	JWTSecret string `yaml:"jwt_secret"`

	FanoutWorkers int `yaml:"fanout_workers"`
	FanoutQueue   int `yaml:"fanout_queue"`
}

func Default() AppConfig {
	return AppConfig{
		HTTPAddr:      ":8080",
		NodeID:        1,
		PostgresDSN:   "postgres://localhost:5432/linkloop",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "linkloop",
		RedisAddr:     "127.0.0.1:6379",
		FanoutWorkers: 8,
		FanoutQueue:   1024,
	}
}

// Load reads cfgPath if non-empty, then applies env overrides. A missing
// file with an explicit path is an error; an empty path is defaults-only.
func Load(cfgPath string) (AppConfig, error) {
	cfg := Default()
	if cfgPath != "" {
		raw, err := os.ReadFile(cfgPath)
		if err != nil {
			return cfg, errs.Wrapf(err, "read config %s", cfgPath)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errs.Wrapf(err, "parse config %s", cfgPath)
		}
	}
	cfg.applyEnv()
	if cfg.JWTSecret == "" {
		return cfg, errs.New("jwt_secret is required (LINKLOOP_JWT_SECRET)")
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	overrideString(&c.HTTPAddr, "LINKLOOP_HTTP_ADDR")
	overrideString(&c.PostgresDSN, "LINKLOOP_POSTGRES_DSN")
	overrideString(&c.MongoURI, "LINKLOOP_MONGO_URI")
	overrideString(&c.MongoDatabase, "LINKLOOP_MONGO_DATABASE")
	overrideString(&c.RedisAddr, "LINKLOOP_REDIS_ADDR")
	overrideString(&c.RedisPassword, "LINKLOOP_REDIS_PASSWORD")
	overrideString(&c.NATSURL, "LINKLOOP_NATS_URL")
	overrideString(&c.JWTSecret, "LINKLOOP_JWT_SECRET")
	if v := os.Getenv("LINKLOOP_NODE_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.NodeID = n
		}
	}
	if v := os.Getenv("LINKLOOP_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
