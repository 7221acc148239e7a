package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"filler/internal/analytics"

	"github.com/segmentio/kafka-go"
)

func main() {
	broker := getenv("KAFKA_BROKER", "localhost:9092")
	topic := getenv("KAFKA_TOPIC", "filler-events")
	interval, err := time.ParseDuration(getenv("STATS_INTERVAL", "30s"))
	if err != nil {
		log.Fatalf("bad STATS_INTERVAL: %v", err)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: "filler-analytics",
	})
	defer reader.Close()

	log.Printf("analytics consumer listening on %s topic=%s", broker, topic)

	metrics := newMetrics()

	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			metrics.printStats()
		}
	}()

	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Fatalf("read error: %v", err)
		}
		var e analytics.Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			log.Printf("failed to unmarshal event: %v", err)
			continue
		}
		handle(metrics, e)
	}
}

func handle(m *metrics, e analytics.Event) {
	switch e.Event {
	case analytics.EventTurnPlayed:
		m.recordTurn(e.Payload)
	case analytics.EventSessionFinished:
		m.recordSessionFinished(e.Payload, e.Timestamp)
		log.Printf("event=%s sessionId=%v turns=%v", e.Event, e.Payload["sessionId"], e.Payload["turns"])
	default:
		log.Printf("ignoring event %q", e.Event)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
