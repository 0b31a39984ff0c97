package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"facilityhub/internal/config"
	"facilityhub/internal/database"
	"facilityhub/internal/events"
	jwtsvc "facilityhub/internal/pkg/jwt"
	"facilityhub/internal/realtime"
	"facilityhub/internal/server"
	"facilityhub/internal/slotlock"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	deps := server.Deps{
		DB:          db,
		JWT:         jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		Location:    cfg.Location,
		Hub:         realtime.NewHub(),
		CORSOrigins: cfg.CORSAllowedOrigins,
	}
	defer deps.Hub.Close()

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("redis ping failed addr=%s error=%v", cfg.RedisAddr, err)
		}
		cancel()
		defer rdb.Close()
		deps.Locker = slotlock.New(rdb, cfg.SlotLockTTL, cfg.SlotLockWait)
		log.Printf("slot lock enabled addr=%s ttl=%s wait=%s", cfg.RedisAddr, cfg.SlotLockTTL, cfg.SlotLockWait)
	}

	switch cfg.EventsDriver {
	case config.EventsAMQP:
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal(err)
		}
		defer pub.Close()
		deps.Publisher = pub
		log.Printf("booking events -> amqp exchange=%s", cfg.AMQPExchange)
	case config.EventsKafka:
		pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer pub.Close()
		deps.Publisher = pub
		log.Printf("booking events -> kafka topic=%s", cfg.KafkaTopic)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("facilityhub listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown failed: %v", err)
	}
}
