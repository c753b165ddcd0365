package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/storefront-state/internal/infrastructure/kafka"
	"github.com/example/storefront-state/internal/state"
)

// Tails the storefront activity topic and logs each event. Useful for
// watching a running client and as the skeleton for downstream projections.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	topic := getEnv("KAFKA_TOPIC", "storefront-activity")
	groupID := getEnv("KAFKA_GROUP_ID", "activity-tail")

	log.Println("[Activity] ========================================")
	log.Println("[Activity] Storefront Activity Consumer")
	log.Println("[Activity] ========================================")
	log.Printf("[Activity] Brokers: %v topic %s group %s", brokers, topic, groupID)

	consumer := kafka.NewConsumer(brokers, topic, groupID)
	defer consumer.Close()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("[Activity] Shutting down...")
		cancel()
	}()

	err := consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error {
		var activity state.Activity
		if err := json.Unmarshal(value, &activity); err != nil {
			log.Printf("[Activity] Skipping malformed event: %v", err)
			return nil
		}
		log.Printf("[Activity] %s profile=%s %s", activity.Type, activity.Profile, string(activity.Data))
		return nil
	})
	if err != nil && err != context.Canceled {
		log.Fatalf("[Activity] Consumer error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
