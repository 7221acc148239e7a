package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"filler/internal/analytics"
	"filler/internal/server"
	"filler/internal/storage"
)

func main() {
	// Check for PORT first (used by Render, Fly.io, Heroku, etc.)
	port := os.Getenv("PORT")
	var addr string
	if port != "" {
		addr = ":" + port
	} else {
		addr = getEnv("ADDR", ":8080")
	}
	idle := durationEnv("SESSION_IDLE_TIMEOUT", 5*time.Minute)

	var store storage.Store
	if dsn := os.Getenv("POSTGRES_URL"); dsn != "" {
		pg, err := storage.NewPostgresStore(context.Background(), dsn)
		if err != nil {
			log.Printf("postgres disabled: %v", err)
		} else {
			if err := pg.EnsureTables(context.Background()); err != nil {
				log.Printf("postgres ensure tables failed: %v", err)
			}
			defer pg.Close()
			store = pg
		}
	}

	var producer *analytics.Producer
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := getEnv("KAFKA_TOPIC", "filler-events")
		producer = analytics.NewProducer(strings.Split(brokers, ","), topic)
		defer producer.Close()
	}

	srv := server.New(server.Config{
		IdleTimeout: idle,
		Store:       store,
		Analytics:   producer,
	})

	log.Printf("move server listening on %s", addr)
	if err := srv.Run(addr); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return time.Duration(parsed) * time.Second
		}
	}
	return fallback
}
