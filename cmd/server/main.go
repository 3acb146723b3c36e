package main

import (
	"context"
	"flag"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"linkloop/data/mongoutil"
	"linkloop/global/config"
	"linkloop/logger"
	"linkloop/middleware"
	"linkloop/module/messaging"
	msgstore "linkloop/module/messaging/store"
	socialstore "linkloop/module/social/store"
	"linkloop/service/api"
	"linkloop/service/chat"
	"linkloop/service/presence"
	"linkloop/service/relay"
	"linkloop/tools/ids"
	"linkloop/tools/security"
)

func main() {
	cfgPath := flag.String("config", "", "path to config yaml")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Errorf("config: %v", err)
		return
	}
	ids.SetNodeID(cfg.NodeID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Relational message log.
	pool, err := msgstore.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Errorf("postgres: %v", err)
		return
	}
	defer pool.Close()
	messages := msgstore.New(pool)
	if err := messages.EnsureSchema(ctx); err != nil {
		logger.Errorf("schema: %v", err)
		return
	}

	// Profiles and friendships.
	db, err := mongoutil.NewDatabase(ctx, &mongoutil.Config{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		logger.Errorf("mongo: %v", err)
		return
	}
	social := socialstore.New(db)
	if err := social.EnsureIndexes(ctx); err != nil {
		logger.Warnf("friend indexes: %v", err)
	}

	// Presence record store.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Errorf("redis: %v", err)
		return
	}

	// Optional cross-instance relay.
	var rl *relay.Relay
	if cfg.NATSURL != "" {
		rl, err = relay.Dial(cfg.NATSURL, "linkloop")
		if err != nil {
			logger.Errorf("nats: %v", err)
			return
		}
		defer rl.Close()
	}

	pub := chat.RelayPublisher(nil)
	if rl != nil {
		pub = rl
	}
	registry := chat.NewRegistry(chat.NewFanout(cfg.FanoutWorkers, cfg.FanoutQueue), pub)
	if rl != nil {
		if err := rl.Subscribe(registry.FanoutLocal); err != nil {
			logger.Errorf("relay subscribe: %v", err)
			return
		}
	}

	tracker := presence.NewTracker(presence.NewRedisStore(rdb), social, registry)
	syncer := messaging.NewSyncer(messages, social, social, tracker, registry)
	pager := messaging.NewPager(messages)
	server := chat.NewServer(registry, syncer, tracker)

	authOpts := security.DefaultOptions([]byte(cfg.JWTSecret))
	r := gin.Default()
	authed := r.Group("/", middleware.Auth(authOpts))
	authed.GET("/ws", server.HandleWS)
	api.NewHandlers(pager, tracker).RegisterRoutes(authed.Group("/api"))

	logger.Infof("listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Errorf("http server: %v", err)
	}
}
